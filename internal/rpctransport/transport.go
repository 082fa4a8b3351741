// Package rpctransport implements the agent's line-delimited, base64-framed
// JSON-RPC 2.0 channel over stdin/stdout, grounded on the stdio connection
// idiom in agent/stdio.go and agent/connectivity.go (panic rather than
// deadlock on Close, a singleton connection good for one process lifetime)
// adapted to a line-oriented, three-reply-shape wire format instead of a
// raw byte stream. Each line on the wire is standard base64 (no line
// wrapping) of one UTF-8 JSON-RPC 2.0 envelope; a bare "__$console" object
// on an otherwise ordinary line is recognized before JSON-RPC interpretation
// and treated as a sidechannel escape the parent forwards verbatim to its
// own developer console.
package rpctransport

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jcn363/MintMind/internal/logging"
	"github.com/jcn363/MintMind/internal/rpcproto"
)

// maxLineSize bounds a single framed message; large payloads (bulk file
// reads) go through ReadFileStream's chunking rather than one oversized
// line.
const maxLineSize = 64 * 1024 * 1024

// Transport reads and writes framed JSON-RPC messages over an underlying
// io.Reader/io.Writer pair, normally os.Stdin/os.Stdout.
type Transport struct {
	scanner *bufio.Scanner
	writer  io.Writer
	writeMu sync.Mutex
	logger  *logging.Logger
}

// New wraps reader/writer as a Transport. log may be nil.
func New(reader io.Reader, writer io.Writer, log *logging.Logger) *Transport {
	if log == nil {
		log = logging.RootLogger
	}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Transport{scanner: scanner, writer: writer, logger: log}
}

// Message is the result of a successful Read: exactly one of Envelope or
// Console is set.
type Message struct {
	Envelope *rpcproto.Envelope
	Console  *rpcproto.ConsoleNotification
}

// Read blocks for the next framed line, decodes it, and classifies it as
// either an ordinary JSON-RPC envelope or a console sidechannel escape. It
// returns io.EOF when the underlying reader is exhausted (the normal
// signal that the parent process has gone away).
func (t *Transport) Read() (*Message, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	line := strings.TrimSpace(t.scanner.Text())
	if line == "" {
		return t.Read()
	}

	raw, err := base64.StdEncoding.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("decode base64 frame: %w", err)
	}

	if console, ok := probeConsole(raw); ok {
		return &Message{Console: console}, nil
	}

	var envelope rpcproto.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &Message{Envelope: &envelope}, nil
}

// probeConsole checks whether raw decodes to an object carrying a
// "__$console" key before committing to envelope interpretation, so that
// the sidechannel escape works regardless of where that key falls in the
// object's field order.
func probeConsole(raw []byte) (*rpcproto.ConsoleNotification, bool) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, false
	}
	if _, ok := generic["__$console"]; !ok {
		return nil, false
	}
	var console rpcproto.ConsoleNotification
	if err := json.Unmarshal(raw, &console); err != nil {
		return nil, false
	}
	return &console, true
}

// write base64-frames payload and writes it as one line, guarded by a
// mutex so concurrent replies from different goroutines never interleave
// mid-line.
func (t *Transport) write(payload []byte) error {
	encoded := base64.StdEncoding.EncodeToString(payload)
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := io.WriteString(t.writer, encoded); err != nil {
		return err
	}
	_, err := io.WriteString(t.writer, "\n")
	return err
}

// WriteResult sends a synchronous or asynchronous reply carrying result
// for the request identified by id.
func (t *Transport) WriteResult(id *json.RawMessage, result interface{}) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rpcproto.Envelope{JSONRPC: "2.0", ID: id, Result: encoded})
	if err != nil {
		return err
	}
	return t.write(payload)
}

// WriteError sends an error reply for the request identified by id.
// fileErr's taxonomy is surfaced via RPCError.Data so a pattern-matching
// parent can still recover the Code.
func (t *Transport) WriteError(id *json.RawMessage, fileErr *rpcproto.FileIOError) error {
	data, _ := json.Marshal(fileErr)
	payload, err := json.Marshal(rpcproto.Envelope{
		JSONRPC: "2.0",
		ID:      id,
		Error: &rpcproto.RPCError{
			Code:    rpcproto.ErrCodeInternalError,
			Message: fileErr.Message,
			Data:    data,
		},
	})
	if err != nil {
		return err
	}
	return t.write(payload)
}

// WriteStreamChunk sends one chunk of a stream reply for the request
// identified by id. done marks the final chunk.
func (t *Transport) WriteStreamChunk(id *json.RawMessage, chunk interface{}, done bool) error {
	encoded, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rpcproto.Envelope{
		JSONRPC: "2.0",
		ID:      id,
		Result:  encoded,
		Stream:  true,
		Done:    done,
	})
	if err != nil {
		return err
	}
	return t.write(payload)
}

// WriteNotification sends a method/params notification that carries no id
// and expects no reply, used for onDidLogMessage.
func (t *Transport) WriteNotification(method string, params interface{}) error {
	encoded, err := json.Marshal(params)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rpcproto.Envelope{JSONRPC: "2.0", Method: method, Params: encoded})
	if err != nil {
		return err
	}
	return t.write(payload)
}

// WriteEncodedNotification sends a method notification whose params is the
// base64-encoded JSON string of body, rather than a plain JSON object — a
// second, inner encoding independent of this transport's own per-line
// base64 framing. Used for onDidChangeFile.
func (t *Transport) WriteEncodedNotification(method string, body interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	encodedBody := base64.StdEncoding.EncodeToString(raw)
	params, err := json.Marshal(encodedBody)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rpcproto.Envelope{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return err
	}
	return t.write(payload)
}
