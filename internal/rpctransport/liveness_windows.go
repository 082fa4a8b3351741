//go:build windows

package rpctransport

import (
	"os"

	"golang.org/x/sys/windows"
)

// signalZero probes process for existence using OpenProcess with only the
// SYNCHRONIZE right and then checking whether it has already signaled
// (exited), since Windows has no signal-0 equivalent for os.Process.
func signalZero(process *os.Process) bool {
	handle, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(process.Pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(handle)

	event, err := windows.WaitForSingleObject(handle, 0)
	if err != nil {
		return false
	}
	return event == uint32(windows.WAIT_TIMEOUT)
}
