// Package fileio implements the File I/O service: the half of the agent
// that answers readFile/writeFile/copy/delete/stat/readdir/realpath/mkdir/
// rename/open/close/read/write/readFileStream/clone requests arriving over
// the RPC transport. It owns no transport state of
// its own; Service methods are called directly by the transport dispatcher
// with already-decoded request structs and return already-encodable
// response structs or a *rpcproto.FileIOError.
package fileio

import (
	"os"

	"github.com/jcn363/MintMind/internal/agentpath"
	"github.com/jcn363/MintMind/internal/filehandle"
	"github.com/jcn363/MintMind/internal/fslock"
	"github.com/jcn363/MintMind/internal/logging"
	"github.com/jcn363/MintMind/internal/rpcproto"
)

// Service is the File I/O service. The zero value is not usable; construct
// with New.
type Service struct {
	locks   *fslock.Manager
	handles *filehandle.Registry
	logger  *logging.Logger
}

// New creates a File I/O service with its own lock manager and handle
// registry. log may be nil, in which case the root logger is used.
func New(log *logging.Logger) *Service {
	if log == nil {
		log = logging.RootLogger
	}
	return &Service{
		locks:   fslock.NewManager(),
		handles: filehandle.New(),
		logger:  log,
	}
}

// statOf converts an os.FileInfo into the wire FileStat shape.
func statOf(info os.FileInfo) rpcproto.FileStat {
	return rpcproto.FileStat{
		Size:        uint64(info.Size()),
		Mtime:       info.ModTime().UnixMilli(),
		Ctime:       info.ModTime().UnixMilli(),
		IsFile:      info.Mode().IsRegular(),
		IsDirectory: info.IsDir(),
		IsSymlink:   info.Mode()&os.ModeSymlink != 0,
		Permissions: uint32(info.Mode().Perm()),
	}
}

// Stat implements the "stat" operation.
func (s *Service) Stat(req rpcproto.StatRequest) (*rpcproto.StatResponse, *rpcproto.FileIOError) {
	path := agentpath.Normalize(req.Path)
	guard := s.locks.Acquire(agentpath.LockKey(path))
	defer guard.Release()

	info, err := os.Lstat(path)
	if err != nil {
		return nil, wrap(err)
	}
	return &rpcproto.StatResponse{Stat: statOf(info)}, nil
}

// ReadDir implements the "readdir" operation.
func (s *Service) ReadDir(req rpcproto.ReadDirRequest) (*rpcproto.ReadDirResponse, *rpcproto.FileIOError) {
	path := agentpath.Normalize(req.Path)
	guard := s.locks.Acquire(agentpath.LockKey(path))
	defer guard.Release()

	children, err := os.ReadDir(path)
	if err != nil {
		return nil, wrap(err)
	}

	entries := make([]rpcproto.DirEntry, 0, len(children))
	for _, child := range children {
		info, err := child.Info()
		if err != nil {
			// A child that vanished between readdir and stat is skipped
			// rather than failing the whole listing.
			continue
		}
		entries = append(entries, rpcproto.DirEntry{
			Name:        child.Name(),
			Path:        agentpath.Join(path, child.Name()),
			IsFile:      info.Mode().IsRegular(),
			IsDirectory: info.IsDir(),
			IsSymlink:   info.Mode()&os.ModeSymlink != 0,
			Size:        uint64(info.Size()),
			Mtime:       info.ModTime().UnixMilli(),
		})
	}
	return &rpcproto.ReadDirResponse{Entries: entries}, nil
}

// RealPath implements the "realpath" operation.
func (s *Service) RealPath(req rpcproto.RealPathRequest) (*rpcproto.RealPathResponse, *rpcproto.FileIOError) {
	path := agentpath.Normalize(req.Path)
	resolved, err := filepathEvalSymlinks(path)
	if err != nil {
		return nil, wrap(err)
	}
	return &rpcproto.RealPathResponse{Path: agentpath.Normalize(resolved)}, nil
}

// MkDir implements the "mkdir" operation.
func (s *Service) MkDir(req rpcproto.MkDirRequest) *rpcproto.FileIOError {
	path := agentpath.Normalize(req.Path)
	guard := s.locks.Acquire(agentpath.LockKey(path))
	defer guard.Release()

	var err error
	if req.Recursive {
		err = os.MkdirAll(path, 0o755)
	} else {
		err = os.Mkdir(path, 0o755)
	}
	return wrap(err)
}
