// Package rpcproto defines the wire-level JSON shapes exchanged between the
// parent editor process and the out-of-process file I/O and watcher agents.
// Every type here round-trips through encoding/json exactly as it appears on
// the base64-framed stdio channel; nothing in this package touches the
// filesystem or a transport.
package rpcproto

import "encoding/json"

// FileStat mirrors the subset of os.FileInfo the remote side needs to make
// decisions without a second round trip.
type FileStat struct {
	Size         uint64 `json:"size"`
	Mtime        int64  `json:"mtime"`
	Ctime        int64  `json:"ctime"`
	IsFile       bool   `json:"isFile"`
	IsDirectory  bool   `json:"isDirectory"`
	IsSymlink    bool   `json:"isSymbolicLink"`
	Permissions  uint32 `json:"permissions"`
}

// DirEntry describes one child of a directory returned by ReadDir.
type DirEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsFile      bool   `json:"isFile"`
	IsDirectory bool   `json:"isDirectory"`
	IsSymlink   bool   `json:"isSymbolicLink"`
	Size        uint64 `json:"size,omitempty"`
	Mtime       int64  `json:"mtime,omitempty"`
}

// AtomicOptions requests the write-temp-then-rename protocol for WriteFile.
// Postfix, if set, overrides the default temporary-file suffix.
type AtomicOptions struct {
	Postfix string `json:"postfix,omitempty"`
}

// ReadFileRequest reads the full contents of a file.
type ReadFileRequest struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding,omitempty"`
}

// ReadFileResponse carries the file content already encoded per the
// request's Encoding ("utf8" yields the decoded string, "base64" yields the
// base64 text of the raw bytes), independent of the transport's own
// per-line base64 framing.
type ReadFileResponse struct {
	Content string   `json:"content"`
	Stat    FileStat `json:"stat"`
}

// WriteFileRequest writes Content to Path. CreateDirs creates missing parent
// directories first. Atomic, if set, requests write-temp-then-rename.
type WriteFileRequest struct {
	Path       string         `json:"path"`
	Content    string         `json:"content"`
	Encoding   string         `json:"encoding,omitempty"`
	CreateDirs bool           `json:"createDirectories,omitempty"`
	Atomic     *AtomicOptions `json:"atomic,omitempty"`
}

// CopyRequest copies Source to Destination, using the platform fast path
// when available. Overwrite controls whether an existing Destination is
// replaced.
type CopyRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Overwrite   bool   `json:"overwrite,omitempty"`
}

// DeleteRequest removes Path. Recursive allows removing non-empty
// directories. Atomic requests the stage-then-unlink protocol for
// recursive deletes so that a crash mid-delete leaves either the original
// tree or nothing, never a partially deleted tree in place.
type DeleteRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
	Atomic    bool   `json:"atomic,omitempty"`
}

// StatRequest retrieves metadata for Path without following a trailing
// symlink further than lstat would.
type StatRequest struct {
	Path string `json:"path"`
}

// StatResponse wraps a FileStat so it has the same request/response
// envelope shape as every other operation.
type StatResponse struct {
	Stat FileStat `json:"stat"`
}

// ReadDirRequest lists the children of Path.
type ReadDirRequest struct {
	Path string `json:"path"`
}

// ReadDirResponse lists Path's children.
type ReadDirResponse struct {
	Entries []DirEntry `json:"entries"`
}

// RealPathRequest resolves Path to its canonical, symlink-free form.
type RealPathRequest struct {
	Path string `json:"path"`
}

// RealPathResponse carries the resolved path.
type RealPathResponse struct {
	Path string `json:"path"`
}

// MkDirRequest creates Path. Recursive creates missing parents, matching
// mkdir -p.
type MkDirRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
}

// RenameRequest moves OldPath to NewPath, locking both paths for the
// duration of the operation.
type RenameRequest struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

// OpenFileRequest opens Path and registers a handle for subsequent
// ReadFileHandle/WriteFileHandle/CloseFile calls. Create opens the file
// read-write, creating or truncating it; without Create the file must
// already exist and is opened read-only. Unlock first attempts to clear the
// file's read-only attribute (the owner-write bit on POSIX).
type OpenFileRequest struct {
	Path   string `json:"path"`
	Create bool   `json:"create,omitempty"`
	Unlock bool   `json:"unlock,omitempty"`
}

// OpenFileResponse returns the handle allocated for the opened file.
type OpenFileResponse struct {
	Handle uint32 `json:"handle"`
}

// CloseFileRequest releases a handle previously returned by OpenFile.
type CloseFileRequest struct {
	Handle uint32 `json:"handle"`
}

// ReadFileHandleRequest reads up to Length bytes from an open handle.
// Position is accepted for wire compatibility but is not used to seek;
// reads always continue sequentially from the handle's current offset.
type ReadFileHandleRequest struct {
	Handle   uint32  `json:"handle"`
	Position *uint64 `json:"position,omitempty"`
	Length   uint32  `json:"length"`
}

// ReadFileHandleResponse carries the bytes read, base64-encoded by
// encoding/json's []byte marshaling, along with the count actually read
// (which may be less than requested at end of file).
type ReadFileHandleResponse struct {
	Data      []byte `json:"data"`
	BytesRead uint32 `json:"bytesRead"`
}

// WriteFileHandleRequest writes Data[Offset:Offset+Length] to an open
// handle at its current position.
type WriteFileHandleRequest struct {
	Handle uint32 `json:"handle"`
	Data   []byte `json:"data"`
	Offset uint32 `json:"offset,omitempty"`
	Length uint32 `json:"length"`
}

// WriteFileHandleResponse reports how many bytes were written.
type WriteFileHandleResponse struct {
	BytesWritten uint32 `json:"bytesWritten"`
}

// ReadFileStreamOptions bounds a streamed read to a byte range and sets the
// chunk size used for each ReadFileStreamResponse.
type ReadFileStreamOptions struct {
	Start      *uint64 `json:"start,omitempty"`
	Length     *uint64 `json:"length,omitempty"`
	BufferSize *uint32 `json:"bufferSize,omitempty"`
}

// ReadFileStreamRequest starts a streamed read of Path; the reply is
// delivered as a sequence of ReadFileStreamResponse stream messages rather
// than a single reply.
type ReadFileStreamRequest struct {
	Path    string                 `json:"path"`
	Options *ReadFileStreamOptions `json:"options,omitempty"`
}

// ReadFileStreamResponse is one chunk of a streamed read. Done marks the
// final chunk (which may itself carry data).
type ReadFileStreamResponse struct {
	Chunk []byte `json:"chunk"`
	Done  bool   `json:"done"`
}

// CloneRequest duplicates Source to Destination using a copy-on-write
// clone primitive where the platform provides one, and never overwrites an
// existing Destination.
type CloneRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// FileIOMethod names one of the fifteen File I/O service operations as it
// appears in an envelope's "method" field.
type FileIOMethod string

const (
	MethodReadFile        FileIOMethod = "readFile"
	MethodWriteFile       FileIOMethod = "writeFile"
	MethodCopy            FileIOMethod = "copy"
	MethodDelete          FileIOMethod = "delete"
	MethodStat            FileIOMethod = "stat"
	MethodReadDir         FileIOMethod = "readdir"
	MethodRealPath        FileIOMethod = "realpath"
	MethodMkDir           FileIOMethod = "mkdir"
	MethodRename          FileIOMethod = "rename"
	MethodOpenFile        FileIOMethod = "open"
	MethodCloseFile       FileIOMethod = "close"
	MethodReadFileHandle  FileIOMethod = "read"
	MethodWriteFileHandle FileIOMethod = "write"
	MethodReadFileStream  FileIOMethod = "readFileStream"
	MethodClone           FileIOMethod = "clone"
)

// FileIOError is the error shape for File I/O service failures; the
// transport sends it as the Data of a reply's RPCError. Code is one of the
// taxonomy constants in
// package fileio; Message is a human-readable description suitable for
// logging, not for pattern matching.
type FileIOError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error satisfies the error interface so FileIOError can be used directly
// wherever Go code expects one.
func (e *FileIOError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// DecodeParams unmarshals raw request parameters into v, the concrete
// request type selected by a FileIOMethod.
func DecodeParams(raw json.RawMessage, v interface{}) error {
	return json.Unmarshal(raw, v)
}
