package testutil

import (
	"sync"
	"time"

	"github.com/lawrns/foco/types"
)

// ChangeRecorder is a board.Notifier that collects every change it
// receives. It is safe for concurrent use, so it can sit behind stores,
// the realtime hub, or reminder scans in tests.
type ChangeRecorder struct {
	mu      sync.Mutex
	changes []types.Change
}

// Notify implements board.Notifier.
func (r *ChangeRecorder) Notify(change types.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

// Changes returns a copy of everything recorded so far.
func (r *ChangeRecorder) Changes() []types.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Change, len(r.changes))
	copy(out, r.changes)
	return out
}

// Reset discards recorded changes.
func (r *ChangeRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = nil
}

// WaitFor polls until at least n changes arrive or the timeout passes,
// reporting whether the count was reached. Asynchronous deliverers (the
// realtime hub's coalescer, the file watcher) need the grace period.
func (r *ChangeRecorder) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if len(r.Changes()) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}
