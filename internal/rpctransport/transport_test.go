package rpctransport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"testing"

	"github.com/jcn363/MintMind/internal/rpcproto"
)

func TestWriteResultThenReadRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	writer := New(nil, &buf, nil)

	id := json.RawMessage(`7`)
	if err := writer.WriteResult(&id, rpcproto.StatResponse{Stat: rpcproto.FileStat{Size: 42}}); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}

	reader := New(&buf, nil, nil)
	msg, err := reader.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if msg.Envelope == nil {
		t.Fatal("expected an envelope, got a console message")
	}

	var result rpcproto.StatResponse
	if err := json.Unmarshal(msg.Envelope.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Stat.Size != 42 {
		t.Fatalf("size = %d, want 42", result.Stat.Size)
	}
}

func TestReadRecognizesConsoleSidechannel(t *testing.T) {
	var buf bytes.Buffer
	writer := New(nil, &buf, nil)

	if err := writer.write(mustMarshal(t, map[string]interface{}{
		"severity":    "warn",
		"__$console": "console",
		"arguments":  []interface{}{"hello"},
	})); err != nil {
		t.Fatalf("write: %v", err)
	}

	reader := New(&buf, nil, nil)
	msg, err := reader.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if msg.Console == nil {
		t.Fatal("expected a console message, got an ordinary envelope")
	}
	if msg.Console.Severity != "warn" {
		t.Fatalf("severity = %q, want %q", msg.Console.Severity, "warn")
	}
}

func TestReadReturnsEOFWhenInputExhausted(t *testing.T) {
	reader := New(bytes.NewReader(nil), nil, nil)
	if _, err := reader.Read(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestWriteStreamChunkMarksStreamAndDone(t *testing.T) {
	var buf bytes.Buffer
	writer := New(nil, &buf, nil)
	id := json.RawMessage(`1`)

	if err := writer.WriteStreamChunk(&id, rpcproto.ReadFileStreamResponse{Chunk: []byte("x"), Done: true}, true); err != nil {
		t.Fatalf("WriteStreamChunk: %v", err)
	}

	reader := New(&buf, nil, nil)
	msg, err := reader.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !msg.Envelope.Stream || !msg.Envelope.Done {
		t.Fatalf("expected Stream and Done both set, got %+v", msg.Envelope)
	}
}

func TestWriteEncodedNotificationDoubleEncodesParams(t *testing.T) {
	var buf bytes.Buffer
	writer := New(nil, &buf, nil)

	resp := rpcproto.WatchResponse{ID: "/some/path", Changes: []rpcproto.FileChange{{Resource: "/some/path/a", ChangeType: rpcproto.ChangeAdded}}}
	if err := writer.WriteEncodedNotification("onDidChangeFile", resp); err != nil {
		t.Fatalf("WriteEncodedNotification: %v", err)
	}

	reader := New(&buf, nil, nil)
	msg, err := reader.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if msg.Envelope == nil || msg.Envelope.Method != "onDidChangeFile" {
		t.Fatalf("expected an onDidChangeFile notification, got %+v", msg)
	}

	var paramsAsBase64String string
	if err := json.Unmarshal(msg.Envelope.Params, &paramsAsBase64String); err != nil {
		t.Fatalf("params is not a JSON string: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(paramsAsBase64String)
	if err != nil {
		t.Fatalf("params is not base64: %v", err)
	}

	var got rpcproto.WatchResponse
	if err := json.Unmarshal(decoded, &got); err != nil {
		t.Fatalf("decoded params is not a WatchResponse: %v", err)
	}
	if got.ID != resp.ID || len(got.Changes) != 1 || got.Changes[0].Resource != resp.Changes[0].Resource {
		t.Fatalf("round-tripped response = %+v, want %+v", got, resp)
	}
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
