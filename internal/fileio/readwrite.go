package fileio

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jcn363/MintMind/internal/agentpath"
	"github.com/jcn363/MintMind/internal/rpcproto"
)

// ReadFile implements the "readFile" operation.
func (s *Service) ReadFile(req rpcproto.ReadFileRequest) (*rpcproto.ReadFileResponse, *rpcproto.FileIOError) {
	path := agentpath.Normalize(req.Path)
	guard := s.locks.Acquire(agentpath.LockKey(path))
	defer guard.Release()

	info, err := os.Stat(path)
	if err != nil {
		return nil, wrap(err)
	}
	if info.IsDir() {
		return nil, wrap(errors.New("is a directory"))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap(err)
	}
	text := string(content)
	if req.Encoding == "base64" {
		text = base64.StdEncoding.EncodeToString(content)
	}
	return &rpcproto.ReadFileResponse{
		Content: text,
		Stat:    statOf(info),
	}, nil
}

// WriteFile implements the "writeFile" operation. When req.Atomic is set,
// content is written to a sibling temporary file and renamed into place, so
// a reader never observes a partially written file and a crash mid-write
// leaves the original untouched.
func (s *Service) WriteFile(req rpcproto.WriteFileRequest) *rpcproto.FileIOError {
	path := agentpath.Normalize(req.Path)
	guard := s.locks.Acquire(agentpath.LockKey(path))
	defer guard.Release()

	if req.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return wrap(err)
		}
	}

	var content []byte
	if req.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			return wrap(errors.Wrap(err, "decode base64 content"))
		}
		content = decoded
	} else {
		content = []byte(req.Content)
	}

	if req.Atomic == nil {
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return wrap(errors.Wrap(err, "write file"))
		}
		return nil
	}

	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return wrap(errors.New("refusing to write through a symbolic link"))
	}
	return s.writeAtomic(path, content, req.Atomic.Postfix)
}

// writeAtomic writes content to a temporary sibling of path and renames it
// into place. The temporary file is best-effort removed if any step after
// its creation fails, so a failed write never leaves a stray ".tmp" file
// behind.
func (s *Service) writeAtomic(path string, content []byte, postfix string) *rpcproto.FileIOError {
	if postfix == "" {
		postfix = fmt.Sprintf(".mintmind-tmp-%s", uuid.NewString())
	}
	tempPath := path + postfix

	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|os.O_EXCL, 0o644)
	if err != nil {
		return wrap(errors.Wrap(err, "create temporary file"))
	}

	if _, err := file.Write(content); err != nil {
		file.Close()
		os.Remove(tempPath)
		return wrap(errors.Wrap(err, "write temporary file"))
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return wrap(errors.Wrap(err, "sync temporary file"))
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return wrap(errors.Wrap(err, "close temporary file"))
	}

	if info, err := os.Stat(path); err == nil {
		if chmodErr := os.Chmod(tempPath, info.Mode().Perm()); chmodErr != nil {
			os.Remove(tempPath)
			return wrap(errors.Wrap(chmodErr, "preserve permissions"))
		}
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return wrap(errors.Wrap(err, "rename temporary file into place"))
	}
	return nil
}
