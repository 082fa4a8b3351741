package fileio

import (
	"io"
	"os"

	"github.com/jcn363/MintMind/internal/agentpath"
	"github.com/jcn363/MintMind/internal/rpcproto"
)

// defaultStreamBufferSize is used when a ReadFileStreamRequest does not
// specify one.
const defaultStreamBufferSize = 64 * 1024

// ReadFileStream implements the "readFileStream" operation, whose reply is
// a sequence of stream messages rather than a single result. emit is
// called once per chunk, in order, with the final call's Done set to true;
// an error from emit (e.g. the transport's writer failing) aborts the
// stream immediately.
func (s *Service) ReadFileStream(req rpcproto.ReadFileStreamRequest, emit func(rpcproto.ReadFileStreamResponse) error) *rpcproto.FileIOError {
	path := agentpath.Normalize(req.Path)
	guard := s.locks.Acquire(agentpath.LockKey(path))
	defer guard.Release()

	file, err := os.Open(path)
	if err != nil {
		return wrap(err)
	}
	defer file.Close()

	bufferSize := uint32(defaultStreamBufferSize)
	var start, length uint64
	hasLength := false
	if req.Options != nil {
		if req.Options.BufferSize != nil {
			bufferSize = *req.Options.BufferSize
		}
		if req.Options.Start != nil {
			start = *req.Options.Start
		}
		if req.Options.Length != nil {
			length = *req.Options.Length
			hasLength = true
		}
	}

	if start > 0 {
		if _, err := file.Seek(int64(start), io.SeekStart); err != nil {
			return wrap(err)
		}
	}

	remaining := length
	buffer := make([]byte, bufferSize)
	for {
		toRead := len(buffer)
		if hasLength {
			if remaining == 0 {
				break
			}
			if uint64(toRead) > remaining {
				toRead = int(remaining)
			}
		}

		n, readErr := file.Read(buffer[:toRead])
		done := false
		if readErr != nil {
			if readErr == io.EOF {
				done = true
			} else {
				return wrap(readErr)
			}
		}
		if hasLength {
			remaining -= uint64(n)
			if remaining == 0 {
				done = true
			}
		}

		if n > 0 || done {
			chunk := make([]byte, n)
			copy(chunk, buffer[:n])
			if err := emit(rpcproto.ReadFileStreamResponse{Chunk: chunk, Done: done}); err != nil {
				return wrap(err)
			}
		}
		if done {
			break
		}
	}
	return nil
}
