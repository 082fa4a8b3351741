// Package watchserver wires the watcher engine (package engine) to the
// RPC transport: it decodes incoming watch/setVerboseLogging/stop
// envelopes, drives an engine.Engine, and forwards the engine's
// WatchResponse and log notifications back out as JSON-RPC notifications.
package watchserver

import (
	"encoding/json"

	"github.com/jcn363/MintMind/internal/logging"
	"github.com/jcn363/MintMind/internal/rpcproto"
	"github.com/jcn363/MintMind/internal/rpctransport"
	"github.com/jcn363/MintMind/internal/watch/engine"
)

const (
	methodWatch             = "watch"
	methodSetVerboseLogging = "setVerboseLogging"
	methodStop              = "stop"
	notificationWatchChange = "onDidChangeFile"
	notificationLogMessage  = "onDidLogMessage"
)

// Server dispatches RPC envelopes to an engine.Engine over a Transport,
// and implements engine.Sink to push results back out over the same
// transport as notifications.
type Server struct {
	engine    *engine.Engine
	transport *rpctransport.Transport
	logger    *logging.Logger
}

// New creates a Server and its underlying engine, bound to transport. log
// may be nil.
func New(transport *rpctransport.Transport, log *logging.Logger) *Server {
	if log == nil {
		log = logging.RootLogger
	}
	s := &Server{transport: transport, logger: log.Sublogger("watch")}
	s.engine = engine.New(s, log.Sublogger("watch"))
	return s
}

// SendWatchResponse implements engine.Sink.
func (s *Server) SendWatchResponse(resp rpcproto.WatchResponse) {
	if err := s.transport.WriteEncodedNotification(notificationWatchChange, resp); err != nil {
		s.logger.Errorf("write watch notification: %v", err)
	}
}

// SendLog implements engine.Sink.
func (s *Server) SendLog(level logging.Level, message string) {
	if err := s.transport.WriteNotification(notificationLogMessage, rpcproto.LogMessageNotification{
		Level:   level.String(),
		Message: message,
	}); err != nil {
		s.logger.Errorf("write log notification: %v", err)
	}
}

// Run reads envelopes from the transport and dispatches them until the
// transport reports EOF or a fatal read error occurs. On return, every
// active watch is torn down.
func (s *Server) Run() error {
	defer s.engine.StopAll()

	for {
		msg, err := s.transport.Read()
		if err != nil {
			return err
		}
		if msg.Console != nil {
			continue
		}
		s.dispatch(msg.Envelope)
	}
}

func (s *Server) dispatch(env *rpcproto.Envelope) {
	switch env.Method {
	case methodWatch:
		var requests []rpcproto.WatchRequest
		if err := s.decode(env, &requests); err != nil {
			return
		}
		if rpcErr := s.engine.Watch(requests); rpcErr != nil {
			s.transport.WriteError(env.ID, rpcErr)
			return
		}
		s.transport.WriteResult(env.ID, struct{}{})

	case methodSetVerboseLogging:
		var verbose bool
		if err := s.decode(env, &verbose); err != nil {
			return
		}
		s.engine.SetVerboseLogging(verbose)
		s.transport.WriteResult(env.ID, struct{}{})

	case methodStop:
		s.engine.Stop()
		s.transport.WriteResult(env.ID, struct{}{})

	default:
		s.logger.Warnf("unrecognized watcher method %q", env.Method)
	}
}

func (s *Server) decode(env *rpcproto.Envelope, v interface{}) error {
	if len(env.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Params, v); err != nil {
		s.logger.Errorf("decode params for %s: %v", env.Method, err)
		s.transport.WriteError(env.ID, &rpcproto.FileIOError{Message: err.Error(), Code: "EINVAL"})
		return err
	}
	return nil
}
