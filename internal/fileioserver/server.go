// Package fileioserver wires the File I/O service (package fileio) to the
// RPC transport: it decodes each incoming envelope's method/params into
// the matching fileio request type, calls the service, and writes back a
// sync reply (or, for readFileStream, a sequence of stream replies).
package fileioserver

import (
	"encoding/json"

	"github.com/jcn363/MintMind/internal/fileio"
	"github.com/jcn363/MintMind/internal/logging"
	"github.com/jcn363/MintMind/internal/rpcproto"
	"github.com/jcn363/MintMind/internal/rpctransport"
)

// Server dispatches RPC envelopes to a fileio.Service over a Transport.
type Server struct {
	service   *fileio.Service
	transport *rpctransport.Transport
	logger    *logging.Logger
}

// New creates a Server bound to transport. log may be nil.
func New(transport *rpctransport.Transport, log *logging.Logger) *Server {
	if log == nil {
		log = logging.RootLogger
	}
	return &Server{
		service:   fileio.New(log.Sublogger("fileio")),
		transport: transport,
		logger:    log,
	}
}

// Run reads envelopes from the transport and dispatches them until the
// transport reports EOF (the parent process has gone away) or a fatal
// read error occurs.
func (s *Server) Run() error {
	for {
		msg, err := s.transport.Read()
		if err != nil {
			return err
		}
		if msg.Console != nil {
			// The File I/O service has no use for console escapes arriving
			// from the parent; they are only ever sent in the other
			// direction. Ignore and keep reading.
			continue
		}
		s.dispatch(msg.Envelope)
	}
}

func (s *Server) dispatch(env *rpcproto.Envelope) {
	switch rpcproto.FileIOMethod(env.Method) {
	case rpcproto.MethodReadFile:
		var req rpcproto.ReadFileRequest
		if !s.decode(env, &req) {
			return
		}
		resp, rpcErr := s.service.ReadFile(req)
		s.reply(env.ID, resp, rpcErr)

	case rpcproto.MethodWriteFile:
		var req rpcproto.WriteFileRequest
		if !s.decode(env, &req) {
			return
		}
		s.reply(env.ID, struct{}{}, s.service.WriteFile(req))

	case rpcproto.MethodCopy:
		var req rpcproto.CopyRequest
		if !s.decode(env, &req) {
			return
		}
		s.reply(env.ID, struct{}{}, s.service.Copy(req))

	case rpcproto.MethodDelete:
		var req rpcproto.DeleteRequest
		if !s.decode(env, &req) {
			return
		}
		s.reply(env.ID, struct{}{}, s.service.Delete(req))

	case rpcproto.MethodStat:
		var req rpcproto.StatRequest
		if !s.decode(env, &req) {
			return
		}
		resp, rpcErr := s.service.Stat(req)
		s.reply(env.ID, resp, rpcErr)

	case rpcproto.MethodReadDir:
		var req rpcproto.ReadDirRequest
		if !s.decode(env, &req) {
			return
		}
		resp, rpcErr := s.service.ReadDir(req)
		s.reply(env.ID, resp, rpcErr)

	case rpcproto.MethodRealPath:
		var req rpcproto.RealPathRequest
		if !s.decode(env, &req) {
			return
		}
		resp, rpcErr := s.service.RealPath(req)
		s.reply(env.ID, resp, rpcErr)

	case rpcproto.MethodMkDir:
		var req rpcproto.MkDirRequest
		if !s.decode(env, &req) {
			return
		}
		s.reply(env.ID, struct{}{}, s.service.MkDir(req))

	case rpcproto.MethodRename:
		var req rpcproto.RenameRequest
		if !s.decode(env, &req) {
			return
		}
		s.reply(env.ID, struct{}{}, s.service.Rename(req))

	case rpcproto.MethodOpenFile:
		var req rpcproto.OpenFileRequest
		if !s.decode(env, &req) {
			return
		}
		resp, rpcErr := s.service.OpenFile(req)
		s.reply(env.ID, resp, rpcErr)

	case rpcproto.MethodCloseFile:
		var req rpcproto.CloseFileRequest
		if !s.decode(env, &req) {
			return
		}
		s.reply(env.ID, struct{}{}, s.service.CloseFile(req))

	case rpcproto.MethodReadFileHandle:
		var req rpcproto.ReadFileHandleRequest
		if !s.decode(env, &req) {
			return
		}
		resp, rpcErr := s.service.ReadFileHandle(req)
		s.reply(env.ID, resp, rpcErr)

	case rpcproto.MethodWriteFileHandle:
		var req rpcproto.WriteFileHandleRequest
		if !s.decode(env, &req) {
			return
		}
		resp, rpcErr := s.service.WriteFileHandle(req)
		s.reply(env.ID, resp, rpcErr)

	case rpcproto.MethodReadFileStream:
		var req rpcproto.ReadFileStreamRequest
		if !s.decode(env, &req) {
			return
		}
		rpcErr := s.service.ReadFileStream(req, func(chunk rpcproto.ReadFileStreamResponse) error {
			return s.transport.WriteStreamChunk(env.ID, chunk, chunk.Done)
		})
		if rpcErr != nil {
			s.transport.WriteError(env.ID, rpcErr)
		}

	case rpcproto.MethodClone:
		var req rpcproto.CloneRequest
		if !s.decode(env, &req) {
			return
		}
		s.reply(env.ID, struct{}{}, s.service.Clone(req))

	default:
		s.logger.Warnf("unrecognized File I/O method %q", env.Method)
	}
}

func (s *Server) decode(env *rpcproto.Envelope, v interface{}) bool {
	if len(env.Params) == 0 {
		return true
	}
	if err := json.Unmarshal(env.Params, v); err != nil {
		s.logger.Errorf("decode params for %s: %v", env.Method, err)
		s.transport.WriteError(env.ID, &rpcproto.FileIOError{Message: err.Error(), Code: "EINVAL"})
		return false
	}
	return true
}

// reply writes a result or error reply for a non-stream operation.
// result is ignored when rpcErr is non-nil.
func (s *Server) reply(id *json.RawMessage, result interface{}, rpcErr *rpcproto.FileIOError) {
	if rpcErr != nil {
		s.transport.WriteError(id, rpcErr)
		return
	}
	s.transport.WriteResult(id, result)
}
