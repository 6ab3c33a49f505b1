package realtime

import (
	"sync"
	"time"

	"github.com/lawrns/foco/types"
)

// Coalescer folds change bursts into single flushes. One save can emit
// several changes back to back; a consumer that re-renders a whole board
// wants one refresh per burst, not one per change. The flush callback
// runs once a burst has been quiet for the debounce window, or when the
// oldest queued change has waited the maximum, whichever comes first.
type Coalescer struct {
	flush    func(batch []types.Change)
	debounce time.Duration
	maxWait  time.Duration

	mu       sync.Mutex
	pending  []types.Change
	timer    *time.Timer
	deadline time.Time
	stopped  bool
}

// NewCoalescer creates a coalescer delivering batches to flush. The
// callback runs on a timer goroutine and must not be nil.
func NewCoalescer(flush func(batch []types.Change), opts ...Option) *Coalescer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Coalescer{
		flush:    flush,
		debounce: cfg.debounce,
		maxWait:  cfg.maxWait,
	}
}

// Add queues a change for the next flush. Safe for concurrent use, and
// a no-op after Stop.
func (c *Coalescer) Add(change types.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	now := time.Now()
	if len(c.pending) == 0 {
		c.deadline = now.Add(c.maxWait)
	}
	c.pending = append(c.pending, change)

	// Every change pushes the quiet window out, but never past the
	// oldest change's deadline.
	wait := c.debounce
	if remaining := c.deadline.Sub(now); remaining < wait {
		wait = remaining
	}
	if wait < 0 {
		wait = 0
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(wait, c.fire)
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()

	if len(batch) > 0 {
		c.flush(batch)
	}
}

// Flush delivers anything pending without waiting for the timers.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(batch) > 0 {
		c.flush(batch)
	}
}

// Stop delivers anything pending and rejects further changes.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(batch) > 0 {
		c.flush(batch)
	}
}
