//go:build linux

package platformcopy

import (
	"os"

	"golang.org/x/sys/unix"
)

// copyFile implements the Linux fast path: copy_file_range in a loop,
// falling back to sendfile on EINVAL/ENOSYS/EXDEV, and to a userspace
// read/write loop if sendfile also fails. EAGAIN/EINTR from
// copy_file_range are retried in place rather than treated as fallback
// triggers.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if info.Size() == 0 {
		if err := touch(dst); err != nil {
			return err
		}
		return os.Chmod(dst, info.Mode().Perm())
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

	total := info.Size()
	copied, err := copyFileRangeLoop(in, out, total)
	if err == nil && copied == total {
		return os.Chmod(dst, info.Mode().Perm())
	}
	if err != nil && err != unix.EINVAL && err != unix.ENOSYS && err != unix.EXDEV {
		return err
	}

	// Reset the destination for the sendfile attempt.
	if truncErr := out.Truncate(0); truncErr != nil {
		return truncErr
	}
	if _, seekErr := out.Seek(0, 0); seekErr != nil {
		return seekErr
	}
	if _, seekErr := in.Seek(0, 0); seekErr != nil {
		return seekErr
	}

	copied, err = sendfileLoop(in, out, total)
	if err == nil && copied == total {
		return os.Chmod(dst, info.Mode().Perm())
	}

	// Final fallback: userspace copy.
	out.Close()
	in.Close()
	if err := userspaceCopy(src, dst); err != nil {
		return err
	}
	return nil
}

func copyFileRangeLoop(in, out *os.File, total int64) (int64, error) {
	var copied int64
	for copied < total {
		n, err := unix.CopyFileRange(int(in.Fd()), nil, int(out.Fd()), nil, int(total-copied), 0)
		if n > 0 {
			copied += int64(n)
			continue
		}
		if n == 0 && err == nil {
			break
		}
		switch err {
		case unix.EAGAIN, unix.EINTR:
			continue
		case unix.EINVAL, unix.ENOSYS, unix.EXDEV:
			return copied, err
		default:
			return copied, err
		}
	}
	return copied, nil
}

func sendfileLoop(in, out *os.File, total int64) (int64, error) {
	var copied int64
	var offset int64
	for copied < total {
		n, err := unix.Sendfile(int(out.Fd()), int(in.Fd()), &offset, int(total-copied))
		if n > 0 {
			copied += int64(n)
			continue
		}
		if n == 0 && err == nil {
			break
		}
		switch err {
		case unix.EAGAIN, unix.EINTR:
			continue
		default:
			return copied, err
		}
	}
	return copied, nil
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// cloneFile attempts an APFS-style reflink via the generic reflink ioctl is
// not available on Linux without filesystem-specific support; Linux's
// practical equivalent is copy_file_range, which already shares extents
// when the underlying filesystem supports it, so clone simply reuses the
// copy path without ever overwriting an existing destination (the caller
// guarantees that).
func cloneFile(src, dst string) error {
	return copyFile(src, dst)
}
