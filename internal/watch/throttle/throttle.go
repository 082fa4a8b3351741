// Package throttle implements the watcher's bounded event throttler: a
// fixed-capacity buffer that a watch's producer goroutine pushes raw
// events into, drained on a fixed cadence into chunked batches delivered
// to a consumer channel. It is grounded on
// original_source/cli/src/services/watcher/throttler.rs, with one
// deliberate behavioral change: the original's worker task only polls the
// pending count to decide whether to log an overflow warning and never
// actually moves buffered events to its output channel, so every event
// past the first buffered one is silently lost until the throttler is
// dropped. This implementation's drain loop is the component that moves
// events from the buffer to the output channel, which is what the rest of
// the watcher engine reads from.
package throttle

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jcn363/MintMind/internal/rpcproto"
)

// overflowWarnThreshold is the pending-event count above which a one-shot
// warning is logged, matching the original's 1000-event threshold.
const overflowWarnThreshold = 1000

// Config bounds one throttler's buffer capacity, drain chunk size, and
// drain cadence.
type Config struct {
	MaxBuffered   int
	ChunkSize     int
	DrainInterval time.Duration
}

// RecursiveConfig is used for watches covering an entire directory tree,
// which can produce far more events per burst than a single directory.
func RecursiveConfig() Config {
	return Config{MaxBuffered: 30000, ChunkSize: 500, DrainInterval: 200 * time.Millisecond}
}

// NonRecursiveConfig is used for watches covering a single directory.
func NonRecursiveConfig() Config {
	return Config{MaxBuffered: 10000, ChunkSize: 100, DrainInterval: 200 * time.Millisecond}
}

// Throttler buffers FileChange events and drains them in bounded chunks on
// a fixed cadence. Construct with New and read drained batches from
// Output(); call Stop to flush any remainder and terminate the drain loop.
type Throttler struct {
	cfg     Config
	logSink func(string)

	mu     sync.Mutex
	buffer []rpcproto.FileChange

	dropped        uint64
	drainedBatches uint64
	warnedOverflow bool

	output chan []rpcproto.FileChange
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Throttler and starts its background drain loop. logSink
// may be nil; when set, it receives human-readable overflow/throttling
// notices suitable for forwarding to the console sidechannel.
func New(cfg Config, logSink func(string)) *Throttler {
	t := &Throttler{
		cfg:     cfg,
		logSink: logSink,
		output:  make(chan []rpcproto.FileChange, 16),
		stopCh:  make(chan struct{}),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// Send buffers event for the next drain. It reports false, and increments
// the drop counter, if the buffer is already at capacity.
func (t *Throttler) Send(event rpcproto.FileChange) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.buffer) >= t.cfg.MaxBuffered {
		atomic.AddUint64(&t.dropped, 1)
		if t.logSink != nil {
			t.logSink(fmt.Sprintf(
				"started ignoring events due to too many file changes (buffer: %d, max: %d)",
				len(t.buffer), t.cfg.MaxBuffered,
			))
		}
		return false
	}
	t.buffer = append(t.buffer, event)
	return true
}

// Output returns the channel that drained batches are delivered on. It is
// closed after Stop completes its final flush.
func (t *Throttler) Output() <-chan []rpcproto.FileChange {
	return t.output
}

// Stop flushes any buffered events in chunked batches and stops the drain
// loop. It blocks until the loop has exited and the output channel is
// closed.
func (t *Throttler) Stop() {
	close(t.stopCh)
	t.wg.Wait()
}

// Stats reports the current buffered event count, the cumulative number
// of events dropped for capacity, and the cumulative number of batches
// drained.
func (t *Throttler) Stats() (pending int, dropped uint64, drainedBatches uint64) {
	t.mu.Lock()
	pending = len(t.buffer)
	t.mu.Unlock()
	return pending, atomic.LoadUint64(&t.dropped), atomic.LoadUint64(&t.drainedBatches)
}

func (t *Throttler) run() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			t.flushAll()
			close(t.output)
			return
		case <-ticker.C:
			t.drainOnce()
		}
	}
}

// drainOnce moves up to one chunk's worth of buffered events to the
// output channel, warning once per threshold crossing if the backlog is
// large.
func (t *Throttler) drainOnce() {
	t.mu.Lock()
	pending := len(t.buffer)
	if pending == 0 {
		t.mu.Unlock()
		return
	}

	if pending > overflowWarnThreshold {
		if !t.warnedOverflow {
			t.warnedOverflow = true
			if t.logSink != nil {
				t.logSink(fmt.Sprintf(
					"started throttling events due to large amount of file changes (pending: %d)", pending,
				))
			}
		}
	} else {
		t.warnedOverflow = false
	}

	chunkSize := t.cfg.ChunkSize
	if chunkSize > pending {
		chunkSize = pending
	}
	chunk := make([]rpcproto.FileChange, chunkSize)
	copy(chunk, t.buffer[:chunkSize])
	t.buffer = t.buffer[chunkSize:]
	t.mu.Unlock()

	atomic.AddUint64(&t.drainedBatches, 1)
	select {
	case t.output <- chunk:
	case <-t.stopCh:
	}
}

// flushAll drains every remaining buffered event in chunked batches,
// called once during Stop so that no event is lost just because it never
// got a chance to be drained by the ticker.
func (t *Throttler) flushAll() {
	for {
		t.mu.Lock()
		if len(t.buffer) == 0 {
			t.mu.Unlock()
			return
		}
		chunkSize := t.cfg.ChunkSize
		if chunkSize > len(t.buffer) {
			chunkSize = len(t.buffer)
		}
		chunk := make([]rpcproto.FileChange, chunkSize)
		copy(chunk, t.buffer[:chunkSize])
		t.buffer = t.buffer[chunkSize:]
		t.mu.Unlock()

		atomic.AddUint64(&t.drainedBatches, 1)
		t.output <- chunk
	}
}
