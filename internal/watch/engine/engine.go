// Package engine implements the Universal watcher service: the half of
// the agent that answers watch/setVerboseLogging/stop requests, owns one
// fsnotify.Watcher-backed goroutine per registered path, and wires each
// one through a debounce window, an event coalescer, a throttler, and a
// suspend/resurrect supervisor on its way to the IPC sink. Non-recursive
// watches map directly onto a single fsnotify watch; recursive watches are
// built by auto-registering every subdirectory discovered at startup and
// on subsequent Create events, the common idiom for layering recursive
// semantics onto fsnotify's single-directory watches.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jcn363/MintMind/internal/agentpath"
	"github.com/jcn363/MintMind/internal/logging"
	"github.com/jcn363/MintMind/internal/rpcproto"
	"github.com/jcn363/MintMind/internal/watch/coalesce"
	"github.com/jcn363/MintMind/internal/watch/suspend"
	"github.com/jcn363/MintMind/internal/watch/throttle"
)

// recursiveDebounce and nonRecursiveDebounce bound how long raw fsnotify
// events are buffered before a coalescing pass runs over them.
const (
	recursiveDebounce    = 75 * time.Millisecond
	nonRecursiveDebounce = 50 * time.Millisecond
)

// Sink receives coalesced, throttled watch responses and log/console
// notifications. The transport layer implements it over the stdio
// channel; tests can implement it over a plain slice.
type Sink interface {
	SendWatchResponse(rpcproto.WatchResponse)
	SendLog(level logging.Level, message string)
}

// Engine owns every active watcher instance, keyed by normalized path. The
// path key doubles as the instance's id and the WatchResponse.ID the
// parent process sees — subscriptions have no separate opaque handle.
type Engine struct {
	mu        sync.Mutex
	instances map[string]*instance // keyed by normalized path
	verbose   bool                 // global setVerboseLogging() toggle
	sink      Sink
	logger    *logging.Logger
}

// New creates an empty Engine. log may be nil, in which case the root
// logger is used.
func New(sink Sink, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.RootLogger
	}
	return &Engine{
		instances: make(map[string]*instance),
		sink:      sink,
		logger:    log,
	}
}

// Watch replaces the full set of active watches with requests: paths
// already registered are updated in place (coalescer patterns, correlation
// id, and change-type filter refreshed without tearing down the native
// watcher or losing in-flight debounced events), paths not yet registered
// are created, and any currently active path absent from requests has its
// task aborted and its instance dropped. The replacement is atomic with
// respect to concurrent callers of Watch/Stop/SetVerboseLogging: on
// failure to create any new instance, every instance created earlier in
// this call is torn down and the prior set is left untouched.
func (e *Engine) Watch(requests []rpcproto.WatchRequest) *rpcproto.FileIOError {
	type desiredEntry struct {
		path string
		req  rpcproto.WatchRequest
	}

	order := make([]string, 0, len(requests))
	desired := make(map[string]desiredEntry, len(requests))
	for _, req := range requests {
		path := agentpath.Normalize(req.Path)
		key := agentpath.LockKey(path)
		if _, seen := desired[key]; !seen {
			order = append(order, key)
		}
		desired[key] = desiredEntry{path: path, req: req}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	created := make([]*instance, 0, len(order))
	for _, key := range order {
		entry := desired[key]
		if existing, ok := e.instances[key]; ok {
			existing.coalescer = coalesce.New(entry.req.Includes, entry.req.Excludes)
			existing.setSubscription(entry.req.CorrelationID, entry.req.Filter)
			continue
		}
		inst, ferr := e.newInstance(entry.path, key, entry.req)
		if ferr != nil {
			for _, c := range created {
				c.stop()
			}
			return ferr
		}
		created = append(created, inst)
	}

	for _, key := range order {
		if existing, ok := e.instances[key]; ok {
			entry := desired[key]
			existing.coalescer = coalesce.New(entry.req.Includes, entry.req.Excludes)
			existing.setSubscription(entry.req.CorrelationID, entry.req.Filter)
		}
	}
	for key, inst := range e.instances {
		if _, keep := desired[key]; !keep {
			delete(e.instances, key)
			go inst.stop()
		}
	}
	for _, inst := range created {
		e.instances[inst.rootKey] = inst
	}

	return nil
}

// newInstance builds and starts a watcher instance for path. The caller
// must hold e.mu.
func (e *Engine) newInstance(path, pathKey string, req rpcproto.WatchRequest) (*instance, *rpcproto.FileIOError) {
	if _, err := os.Stat(path); err != nil {
		return nil, &rpcproto.FileIOError{Message: err.Error(), Code: "WATCHER_ERROR"}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &rpcproto.FileIOError{Message: err.Error(), Code: "WATCHER_ERROR"}
	}

	if addErr := registerDirectories(watcher, path, req.Recursive); addErr != nil {
		watcher.Close()
		return nil, &rpcproto.FileIOError{Message: addErr.Error(), Code: "WATCHER_ERROR"}
	}

	chunkConfig := throttle.NonRecursiveConfig()
	debounce := nonRecursiveDebounce
	if req.Recursive {
		chunkConfig = throttle.RecursiveConfig()
		debounce = recursiveDebounce
	}

	inst := &instance{
		id:        path,
		rootPath:  path,
		rootKey:   pathKey,
		recursive: req.Recursive,
		watcher:   watcher,
		coalescer: coalesce.New(req.Includes, req.Excludes),
		stopCh:    make(chan struct{}),
		sink:      e.sink,
		logger:    e.logger.Sublogger("watch"),
	}
	inst.setVerbose(e.verbose)
	inst.throttler = throttle.New(chunkConfig, inst.logConsole)
	inst.suspender = suspend.New(inst.onResurrect)
	inst.setSubscription(req.CorrelationID, req.Filter)

	inst.start(debounce)
	return inst, nil
}

// SetVerboseLogging toggles verbose per-event logging for every active
// watch, and for every watch registered afterward, until toggled again.
func (e *Engine) SetVerboseLogging(verbose bool) {
	e.mu.Lock()
	e.verbose = verbose
	for _, inst := range e.instances {
		inst.setVerbose(verbose)
	}
	e.mu.Unlock()
}

// Stop aborts every active watch task and clears every instance.
func (e *Engine) Stop() {
	e.StopAll()
}

// StopAll tears down every active watch, used both by the RPC-reachable
// stop() method and during process shutdown.
func (e *Engine) StopAll() {
	e.mu.Lock()
	instances := make([]*instance, 0, len(e.instances))
	for key, inst := range e.instances {
		instances = append(instances, inst)
		delete(e.instances, key)
	}
	e.mu.Unlock()

	for _, inst := range instances {
		inst.stop()
	}
}

// registerDirectories adds root, and every subdirectory beneath it when
// recursive is set, to watcher.
func registerDirectories(watcher *fsnotify.Watcher, root string, recursive bool) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(root))
	}
	if !recursive {
		return watcher.Add(root)
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if addErr := watcher.Add(path); addErr != nil {
				return fmt.Errorf("watch %s: %w", path, addErr)
			}
		}
		return nil
	})
}
