package engine

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"

	"github.com/jcn363/MintMind/internal/logging"
	"github.com/jcn363/MintMind/internal/rpcproto"
	"github.com/jcn363/MintMind/internal/watch/coalesce"
	"github.com/jcn363/MintMind/internal/watch/suspend"
	"github.com/jcn363/MintMind/internal/watch/throttle"
)

// instance is one registered watch: its native OS watcher, its private
// coalescer/throttler/suspender pipeline, and the goroutines that move
// events through it. id is the subscription's normalized path, which also
// serves as the WatchResponse.ID the parent process sees — there is no
// separate opaque handle.
type instance struct {
	id        string
	rootPath  string
	rootKey   string
	recursive bool
	verbose   uint32 // accessed atomically as a 0/1 flag

	subMu         sync.Mutex
	correlationID *uint32
	filter        rpcproto.FileChangeFilter

	watcher   *fsnotify.Watcher
	coalescer *coalesce.Coalescer
	throttler *throttle.Throttler
	suspender *suspend.Supervisor

	sink   Sink
	logger *logging.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup

	deliveredChanges uint64 // accessed atomically, for verbose stats logging
}

func (inst *instance) setVerbose(verbose bool) {
	var v uint32
	if verbose {
		v = 1
	}
	atomic.StoreUint32(&inst.verbose, v)
}

func (inst *instance) isVerbose() bool {
	return atomic.LoadUint32(&inst.verbose) == 1
}

// setSubscription updates the correlation id and change-type filter applied
// to events emitted by this instance, and mirrors the correlation id into
// the suspend supervisor so a resurrection's synthetic Added event carries
// it too. Called both at creation and whenever an in-place watch() update
// changes these fields.
func (inst *instance) setSubscription(correlationID *uint32, filter rpcproto.FileChangeFilter) {
	inst.subMu.Lock()
	inst.correlationID = correlationID
	inst.filter = filter
	inst.subMu.Unlock()
	inst.suspender.SetCorrelationID(inst.rootKey, correlationID)
}

func (inst *instance) subscription() (*uint32, rpcproto.FileChangeFilter) {
	inst.subMu.Lock()
	defer inst.subMu.Unlock()
	return inst.correlationID, inst.filter
}

// start launches the instance's three background loops: the raw-event
// pump (fsnotify -> debounce -> coalescer -> throttler), the batch pump
// (throttler -> sink), and the resurrection poller.
func (inst *instance) start(debounce time.Duration) {
	inst.wg.Add(3)
	go inst.pumpRawEvents(debounce)
	go inst.pumpBatches()
	go inst.pollResurrection()
}

func (inst *instance) stop() {
	close(inst.stopCh)
	inst.watcher.Close()
	inst.throttler.Stop()
	inst.wg.Wait()
}

// pumpRawEvents converts fsnotify events into FileChange values, buffers
// them for up to debounce before running a single coalescing pass, and
// forwards the result to the throttler. A recursive watch additionally
// registers newly created directories so they are covered going forward.
func (inst *instance) pumpRawEvents(debounce time.Duration) {
	defer inst.wg.Done()

	var buffer []rpcproto.FileChange
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	timerActive := false

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		coalesced := inst.coalescer.Coalesce(buffer)
		buffer = nil
		correlationID, filter := inst.subscription()
		for _, change := range coalesced {
			if !filter.Matches(change.ChangeType) {
				continue
			}
			change.CorrelationID = correlationID
			if !inst.throttler.Send(change) {
				inst.logger.Warnf("dropped event for %s: throttle buffer full", change.Resource)
			}
		}
	}

	for {
		select {
		case <-inst.stopCh:
			return
		case event, ok := <-inst.watcher.Events:
			if !ok {
				return
			}
			inst.suspender.RecordSuccess(inst.rootKey)
			if inst.recursive && event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					inst.watcher.Add(event.Name)
				}
			}
			if change, ok := toFileChange(event); ok {
				buffer = append(buffer, change)
				if inst.isVerbose() {
					inst.logger.Debugf("%s %s", change.ChangeType, change.Resource)
				}
			}
			if !timerActive {
				timer.Reset(debounce)
				timerActive = true
			}
		case <-timer.C:
			timerActive = false
			flush()
		case watchErr, ok := <-inst.watcher.Errors:
			if !ok {
				return
			}
			inst.logger.Errorf("watch error for %s: %v", inst.rootPath, watchErr)
			if inst.suspender.RecordFailure(inst.rootKey) {
				inst.logger.Warnf("suspending watch for %s after repeated failures", inst.rootPath)
			}
		}
	}
}

// pumpBatches forwards every batch the throttler drains to the sink as a
// WatchResponse.
func (inst *instance) pumpBatches() {
	defer inst.wg.Done()
	for batch := range inst.throttler.Output() {
		total := atomic.AddUint64(&inst.deliveredChanges, uint64(len(batch)))
		if inst.isVerbose() {
			inst.logger.Debugf("delivered %s changes for %s (%s total)",
				humanize.Comma(int64(len(batch))), inst.rootPath, humanize.Comma(int64(total)))
		}
		if inst.sink != nil {
			inst.sink.SendWatchResponse(rpcproto.WatchResponse{ID: inst.id, Changes: batch})
		}
	}
}

// pollResurrection checks a suspended watch's root path for reappearance,
// starting at the fast cadence and backing off to the steady-state
// cadence once the path has been suspended for a while.
func (inst *instance) pollResurrection() {
	defer inst.wg.Done()

	interval := suspend.FastResurrectionCheckInterval
	suspendedSince := time.Time{}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-inst.stopCh:
			return
		case <-ticker.C:
			if !inst.suspender.IsSuspended(inst.rootKey) {
				suspendedSince = time.Time{}
				if interval != suspend.FastResurrectionCheckInterval {
					interval = suspend.FastResurrectionCheckInterval
					ticker.Reset(interval)
				}
				continue
			}
			if suspendedSince.IsZero() {
				suspendedSince = time.Now()
			} else if time.Since(suspendedSince) > suspend.FastResurrectionCheckInterval*6 && interval != suspend.ResurrectionCheckInterval {
				interval = suspend.ResurrectionCheckInterval
				ticker.Reset(interval)
			}
			inst.suspender.CheckResurrection(inst.rootKey)
		}
	}
}

// onResurrect is the suspend.Supervisor callback; it re-adds the root path
// to the native watcher and forwards the synthetic Added event through
// the same throttle pipeline as any other event.
func (inst *instance) onResurrect(change rpcproto.FileChange) {
	if err := inst.watcher.Add(inst.rootPath); err != nil {
		inst.logger.Errorf("failed to re-register watch for %s after resurrection: %v", inst.rootPath, err)
	}
	if change.CorrelationID == nil {
		change.CorrelationID, _ = inst.subscription()
	}
	inst.throttler.Send(change)
}

// logConsole relays throttler overflow/throttling notices to the
// instance's logger and the sink's log channel.
func (inst *instance) logConsole(message string) {
	inst.logger.Warn(message)
	if inst.sink != nil {
		inst.sink.SendLog(logging.LevelWarn, message)
	}
}

// toFileChange classifies a raw fsnotify event and, for anything other
// than a deletion, stamps the resource's current mtime (in Unix
// milliseconds) onto the change.
func toFileChange(event fsnotify.Event) (rpcproto.FileChange, bool) {
	var changeType rpcproto.FileChangeType
	switch {
	case event.Op&fsnotify.Create != 0:
		changeType = rpcproto.ChangeAdded
	case event.Op&fsnotify.Write != 0:
		changeType = rpcproto.ChangeUpdated
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		changeType = rpcproto.ChangeDeleted
	case event.Op&fsnotify.Chmod != 0:
		changeType = rpcproto.ChangeUpdated
	default:
		return rpcproto.FileChange{}, false
	}
	change := rpcproto.FileChange{Resource: event.Name, ChangeType: changeType}
	if changeType != rpcproto.ChangeDeleted {
		if info, err := os.Stat(event.Name); err == nil {
			mtime := info.ModTime().UnixMilli()
			change.MTime = &mtime
		}
	}
	return change, true
}
