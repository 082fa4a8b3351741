package fileio

import (
	"strings"

	"github.com/jcn363/MintMind/internal/rpcproto"
)

// Error taxonomy codes surfaced to the parent process. The File I/O set
// mirrors POSIX errno names; the watcher set covers failures that have no
// direct errno analog.
const (
	CodePermission     = "EPERM"
	CodeNotFound       = "ENOENT"
	CodeIsDirectory    = "EISDIR"
	CodeNotDirectory   = "ENOTDIR"
	CodeAlreadyExists  = "EEXIST"
	CodeNoSpace        = "ENOSPC"
	CodeTooManyHandles = "EMFILE"
	CodeInvalidArgument = "EINVAL"
	CodeIO             = "EIO"

	CodeInvalidURI     = "INVALID_URI"
	CodeCoalescerError = "COALESCER_ERROR"
	CodeWatcherError   = "WATCHER_ERROR"
	CodeSuspended      = "SUSPENDED"
	CodeWatchNotFound  = "NOT_FOUND"
)

// substringCodes is consulted in order; the first pattern that matches a
// case-folded error message wins. Order matters where one message could
// contain more than one candidate substring (e.g. "file exists" never
// mentions "no such file", so there is no real overlap, but the ordering
// is kept deliberate rather than relying on map iteration).
var substringCodes = []struct {
	substr string
	code   string
}{
	{"permission denied", CodePermission},
	{"operation not permitted", CodePermission},
	{"no such file or directory", CodeNotFound},
	{"not found", CodeNotFound},
	{"is a directory", CodeIsDirectory},
	{"not a directory", CodeNotDirectory},
	{"file exists", CodeAlreadyExists},
	{"already exists", CodeAlreadyExists},
	{"no space left on device", CodeNoSpace},
	{"too many open files", CodeTooManyHandles},
	{"invalid argument", CodeInvalidArgument},
	{"input/output error", CodeIO},
}

// classify derives a taxonomy code from err's message by case-insensitive
// substring match, falling back to EIO when nothing matches. This mirrors
// how the underlying syscall errors surface through os.PathError/
// os.LinkError, whose messages embed the raw errno string rather than a
// structured code.
func classify(err error) string {
	if err == nil {
		return ""
	}
	message := strings.ToLower(err.Error())
	for _, candidate := range substringCodes {
		if strings.Contains(message, candidate.substr) {
			return candidate.code
		}
	}
	return CodeIO
}

// wrap converts a Go error into the FileIOError shape returned on the wire,
// classifying it into the taxonomy unless it is already a *FileIOError (in
// which case it is returned unchanged rather than double-wrapped).
func wrap(err error) *rpcproto.FileIOError {
	if err == nil {
		return nil
	}
	if fileIOErr, ok := err.(*rpcproto.FileIOError); ok {
		return fileIOErr
	}
	return &rpcproto.FileIOError{
		Message: err.Error(),
		Code:    classify(err),
	}
}
