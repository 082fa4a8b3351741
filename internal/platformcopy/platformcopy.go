// Package platformcopy implements the agent's platform-dispatched file
// copy: a single CopyFile entry point whose implementation is selected at
// build time per target OS, falling back to a generic read/write loop when
// the platform's fast primitive is unavailable or fails. On Linux,
// copy_file_range errors other than EINVAL/ENOSYS/EXDEV are returned
// instead of falling back.
package platformcopy

import (
	"errors"
	"io"
	"os"
)

// CopyFile copies the contents and permissions of src to dst, using the
// fastest mechanism available on the current platform and falling back to a
// userspace copy loop when that mechanism is unavailable. Zero-size source
// files skip any copy loop and only propagate permissions.
//
// The per-OS implementations live in copy_linux.go, copy_darwin.go,
// copy_windows.go, and copy_other.go.
func CopyFile(src, dst string) error {
	return copyFile(src, dst)
}

// CloneFile attempts a reflink/clonefile-style duplication of src at dst,
// falling back to CopyFile if the platform has no such primitive or it
// fails. Unlike CopyFile, it never overwrites an existing destination (the
// caller is expected to have already verified dst does not exist).
func CloneFile(src, dst string) error {
	return cloneFile(src, dst)
}

// userspaceCopy is the common fallback: a plain read/write loop followed by
// a permission copy, used by every platform's implementation when its
// fast-path primitive is unavailable or fails.
func userspaceCopy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if info.Size() > 0 {
		buffer := make([]byte, 256*1024)
		for {
			n, readErr := in.Read(buffer)
			if n > 0 {
				if _, writeErr := out.Write(buffer[:n]); writeErr != nil {
					return writeErr
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return readErr
			}
		}
	}

	return os.Chmod(dst, info.Mode().Perm())
}
