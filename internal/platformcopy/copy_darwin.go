//go:build darwin

package platformcopy

import (
	"os"

	"golang.org/x/sys/unix"
)

// copyFile implements the macOS fast path: clonefile(2), an APFS reflink
// primitive that duplicates a file's extents without a data copy on
// filesystems that support it. On failure (cross-device, unsupported
// filesystem, destination already exists) it falls back to a userspace
// copy.
func copyFile(src, dst string) error {
	if err := unix.Clonefile(src, dst, 0); err == nil {
		return nil
	}
	return userspaceCopy(src, dst)
}

// cloneFile is clonefile-first and never overwrites an existing
// destination; CopyFile's fallback already behaves identically on this
// platform, since clonefile itself refuses to overwrite.
func cloneFile(src, dst string) error {
	if err := unix.Clonefile(src, dst, 0); err == nil {
		return nil
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
		if err != nil {
			return err
		}
		return f.Close()
	}
	return userspaceCopy(src, dst)
}
