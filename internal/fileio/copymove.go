package fileio

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jcn363/MintMind/internal/agentpath"
	"github.com/jcn363/MintMind/internal/platformcopy"
	"github.com/jcn363/MintMind/internal/rpcproto"
)

// Copy implements the "copy" operation, dispatching to the platform's fast
// copy path (copy_file_range/sendfile on Linux, clonefile on macOS,
// userspace elsewhere).
func (s *Service) Copy(req rpcproto.CopyRequest) *rpcproto.FileIOError {
	source := agentpath.Normalize(req.Source)
	destination := agentpath.Normalize(req.Destination)
	guard := s.locks.AcquireMany(agentpath.LockKey(source), agentpath.LockKey(destination))
	defer guard.Release()

	if !req.Overwrite {
		if _, err := os.Lstat(destination); err == nil {
			return wrap(errors.New("file exists"))
		}
	}
	return wrap(platformcopy.CopyFile(source, destination))
}

// Clone implements the "clone" operation: like Copy, but never overwrites
// an existing destination regardless of request options.
func (s *Service) Clone(req rpcproto.CloneRequest) *rpcproto.FileIOError {
	source := agentpath.Normalize(req.Source)
	destination := agentpath.Normalize(req.Destination)
	guard := s.locks.AcquireMany(agentpath.LockKey(source), agentpath.LockKey(destination))
	defer guard.Release()

	if _, err := os.Lstat(destination); err == nil {
		return wrap(errors.New("file exists"))
	}
	return wrap(platformcopy.CloneFile(source, destination))
}

// Rename implements the "rename" operation, locking both paths in
// lexicographic order to avoid deadlocking against a concurrent rename of
// the opposite pair.
func (s *Service) Rename(req rpcproto.RenameRequest) *rpcproto.FileIOError {
	oldPath := agentpath.Normalize(req.OldPath)
	newPath := agentpath.Normalize(req.NewPath)
	guard := s.locks.AcquireMany(agentpath.LockKey(oldPath), agentpath.LockKey(newPath))
	defer guard.Release()

	return wrap(os.Rename(oldPath, newPath))
}

// Delete implements the "delete" operation. When Recursive and Atomic are
// both set, the target is first renamed into a uniquely named staging sibling and
// then removed, so that a crash mid-delete either leaves the original tree
// untouched (rename never happened or failed) or leaves nothing of it
// behind (rename succeeded, and the staged copy has no original-named
// path any reader could observe as partially deleted).
func (s *Service) Delete(req rpcproto.DeleteRequest) *rpcproto.FileIOError {
	path := agentpath.Normalize(req.Path)
	guard := s.locks.Acquire(agentpath.LockKey(path))
	defer guard.Release()

	if !req.Recursive {
		return wrap(os.Remove(path))
	}

	if !req.Atomic {
		return wrap(os.RemoveAll(path))
	}
	return s.deleteAtomicRecursive(path)
}

func (s *Service) deleteAtomicRecursive(path string) *rpcproto.FileIOError {
	stagingPath := fmt.Sprintf("%s.mintmind-delete-%s", path, uuid.NewString())

	if err := os.Rename(path, stagingPath); err != nil {
		return wrap(errors.Wrap(err, "stage for deletion"))
	}
	if err := os.RemoveAll(stagingPath); err != nil {
		// The rename already succeeded, so the original path is gone from
		// the caller's point of view; surface the cleanup failure but do
		// not attempt to rename the staged tree back, which could race
		// with whatever the caller does next believing the delete
		// completed.
		return wrap(errors.Wrap(err, "remove staged tree"))
	}
	return nil
}
