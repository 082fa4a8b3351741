package rpctransport

import (
	"os"
	"strconv"
	"time"
)

// livenessPollInterval is the cadence at which the parent process's PID is
// probed for continued existence.
const livenessPollInterval = 5 * time.Second

// defaultParentPID is used when neither environment variable is set or
// parseable; PID 1 always exists, so probing it is equivalent to never
// detecting the parent as gone, matching the editor-less manual testing
// case.
const defaultParentPID = 1

// ParentPID resolves the parent process id from VSCODE_PARENT_PID or
// MINTMIND_PARENT_PID (checked in that order, for compatibility with
// editors that still set the former), falling back to defaultParentPID.
func ParentPID() int {
	for _, name := range []string{"VSCODE_PARENT_PID", "MINTMIND_PARENT_PID"} {
		if raw := os.Getenv(name); raw != "" {
			if pid, err := strconv.Atoi(raw); err == nil && pid > 0 {
				return pid
			}
		}
	}
	return defaultParentPID
}

// MonitorParent polls pid for continued existence every
// livenessPollInterval and calls onGone exactly once, the first time the
// process is found to no longer exist. It runs until stop is closed or
// onGone has fired.
func MonitorParent(pid int, stop <-chan struct{}, onGone func()) {
	ticker := time.NewTicker(livenessPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !processExists(pid) {
				onGone()
				return
			}
		}
	}
}

// processExists reports whether pid refers to a live process. On POSIX
// systems os.FindProcess always succeeds, so liveness is checked by
// sending signal 0, which performs permission and existence checks
// without affecting the target process.
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return signalZero(process)
}
