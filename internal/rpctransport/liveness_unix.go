//go:build !windows

package rpctransport

import (
	"os"
	"syscall"
)

// signalZero probes process for existence via signal 0, which performs
// the kernel's existence/permission checks without delivering any actual
// signal to the target.
func signalZero(process *os.Process) bool {
	return process.Signal(syscall.Signal(0)) == nil
}
