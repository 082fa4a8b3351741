// Package suspend implements the watcher's suspend/resurrect supervisor: a
// watch that fails repeatedly falls back to polling for its target's
// existence rather than being torn down outright, and is transparently
// resumed with a synthetic Added event the moment the target reappears.
// It is grounded on
// original_source/cli/src/services/watcher/suspend.rs, reworked from the
// original's HashMap-of-PathBuf bookkeeping into a mutex-guarded map keyed
// on the same normalized path strings the lock manager and watcher engine
// use.
package suspend

import (
	"os"
	"sync"
	"time"

	"github.com/jcn363/MintMind/internal/rpcproto"
)

// FailureThreshold is the number of consecutive failures recorded against
// a path before it is automatically suspended.
const FailureThreshold = 5

// PollInterval is a 5007 ms polling cadence. The watcher engine does not
// use it: suspended paths are checked at FastResurrectionCheckInterval and
// then ResurrectionCheckInterval.
const PollInterval = 5007 * time.Millisecond

// ResurrectionCheckInterval is the steady-state cadence the watcher engine
// checks every suspended path for resurrection.
const ResurrectionCheckInterval = 30 * time.Second

// FastResurrectionCheckInterval is used instead of
// ResurrectionCheckInterval immediately after a path is suspended, so a
// quick bounce-back (the common case for editors performing a
// rename-based save) is detected promptly.
const FastResurrectionCheckInterval = 5 * time.Second

// suspendedEntry tracks one suspended path's bookkeeping.
type suspendedEntry struct {
	startedAt     time.Time
	correlationID *uint32
}

// Supervisor tracks per-path failure counts and suspended state for one
// watcher instance. The zero value is not usable; construct with New.
type Supervisor struct {
	mu         sync.Mutex
	failures   map[string]int
	suspended  map[string]*suspendedEntry
	onResume   func(rpcproto.FileChange)
}

// New creates a Supervisor. onResume is invoked with a synthetic Added
// event whenever CheckResurrection detects that a suspended path has
// reappeared; it may be nil.
func New(onResume func(rpcproto.FileChange)) *Supervisor {
	return &Supervisor{
		failures:  make(map[string]int),
		suspended: make(map[string]*suspendedEntry),
		onResume:  onResume,
	}
}

// RecordFailure increments path's failure count and suspends it once the
// count reaches FailureThreshold. It returns true if this call caused the
// path to become suspended.
func (s *Supervisor) RecordFailure(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[path]++
	if s.failures[path] < FailureThreshold {
		return false
	}
	if _, already := s.suspended[path]; already {
		return false
	}
	s.suspended[path] = &suspendedEntry{startedAt: time.Now()}
	return true
}

// RecordSuccess clears path's failure count. It does not resume an
// already-suspended path; callers use Resume or rely on CheckResurrection
// for that.
func (s *Supervisor) RecordSuccess(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// IsSuspended reports whether path is currently suspended.
func (s *Supervisor) IsSuspended(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.suspended[path]
	return ok
}

// SuspendedPaths returns every currently suspended path.
func (s *Supervisor) SuspendedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.suspended))
	for path := range s.suspended {
		paths = append(paths, path)
	}
	return paths
}

// SetCorrelationID attaches a correlation id to a suspended path so that
// the Added event eventually emitted on resurrection can be traced back
// to the request that triggered the suspension.
func (s *Supervisor) SetCorrelationID(path string, correlationID *uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.suspended[path]; ok {
		entry.correlationID = correlationID
	}
}

// Resume clears path's suspended and failure state without checking
// whether the target actually exists again; used when a watch is being
// torn down entirely.
func (s *Supervisor) Resume(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.suspended, path)
	delete(s.failures, path)
}

// CheckResurrection polls path for existence and, if it now exists,
// resumes it and invokes onResume with a synthetic Added event. It
// reports whether resurrection was detected. Calling it against a path
// that is not suspended is a no-op that returns false.
func (s *Supervisor) CheckResurrection(path string) bool {
	s.mu.Lock()
	entry, ok := s.suspended[path]
	s.mu.Unlock()
	if !ok {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	s.mu.Lock()
	delete(s.suspended, path)
	delete(s.failures, path)
	s.mu.Unlock()

	if s.onResume != nil {
		mtime := info.ModTime().UnixMilli()
		s.onResume(rpcproto.FileChange{
			Resource:      path,
			ChangeType:    rpcproto.ChangeAdded,
			CorrelationID: entry.correlationID,
			MTime:         &mtime,
		})
	}
	return true
}
