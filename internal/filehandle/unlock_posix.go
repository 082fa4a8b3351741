//go:build !windows

package filehandle

import "os"

// clearReadOnly clears the owner-write bit on path, if the file exists.
func clearReadOnly(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode()|0o200)
}
