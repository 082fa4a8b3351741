//go:build windows

package filehandle

import (
	"os"

	"github.com/hectane/go-acl"
)

// clearReadOnly clears the read-only attribute on path, if the file
// exists, by rewriting its Windows ACL to grant the owner write access.
func clearReadOnly(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return acl.Chmod(path, info.Mode()|0o200)
}
