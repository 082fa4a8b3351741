package fileio

import (
	"github.com/jcn363/MintMind/internal/agentpath"
	"github.com/jcn363/MintMind/internal/filehandle"
	"github.com/jcn363/MintMind/internal/rpcproto"
)

// OpenFile implements the "open" operation, registering a new handle in
// the process-wide handle registry.
func (s *Service) OpenFile(req rpcproto.OpenFileRequest) (*rpcproto.OpenFileResponse, *rpcproto.FileIOError) {
	path := agentpath.Normalize(req.Path)
	handle, err := s.handles.Open(path, filehandle.OpenOptions{
		Create: req.Create,
		Unlock: req.Unlock,
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &rpcproto.OpenFileResponse{Handle: handle}, nil
}

// CloseFile implements the "close" operation.
func (s *Service) CloseFile(req rpcproto.CloseFileRequest) *rpcproto.FileIOError {
	return wrap(s.handles.Close(req.Handle))
}

// ReadFileHandle implements the "read" operation against an open handle.
func (s *Service) ReadFileHandle(req rpcproto.ReadFileHandleRequest) (*rpcproto.ReadFileHandleResponse, *rpcproto.FileIOError) {
	data, err := s.handles.Read(req.Handle, req.Length)
	if err != nil {
		return nil, wrap(err)
	}
	return &rpcproto.ReadFileHandleResponse{
		Data:      data,
		BytesRead: uint32(len(data)),
	}, nil
}

// WriteFileHandle implements the "write" operation against an open handle.
func (s *Service) WriteFileHandle(req rpcproto.WriteFileHandleRequest) (*rpcproto.WriteFileHandleResponse, *rpcproto.FileIOError) {
	length := req.Length
	if length == 0 {
		length = uint32(len(req.Data)) - req.Offset
	}
	n, err := s.handles.Write(req.Handle, req.Data, req.Offset, length)
	if err != nil {
		return nil, wrap(err)
	}
	return &rpcproto.WriteFileHandleResponse{BytesWritten: n}, nil
}
