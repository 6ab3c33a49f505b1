// Package realtime fans board changes out to live consumers. The hub
// broadcasts every store mutation to subscribers, the coalescer folds
// bursts into single refreshes, and the watcher turns file rewrites by
// other processes into board-level changes.
package realtime

import (
	"context"

	"github.com/guiguan/caster"

	"github.com/lawrns/foco/types"
)

// subscriberBuffer is how many changes a subscriber may fall behind
// before it starts missing them.
const subscriberBuffer = 16

// Publisher accepts changes for broadcast. The hub satisfies it; tests
// substitute recorders.
type Publisher interface {
	Publish(change types.Change)
}

// Hub broadcasts changes to any number of subscribers. Publishing never
// blocks: a subscriber that stops draining its channel misses changes
// instead of stalling store writes. Safe for concurrent use.
type Hub struct {
	cast *caster.Caster
}

// NewHub creates a running hub. Close releases it and closes every
// subscriber channel.
func NewHub() *Hub {
	return &Hub{cast: caster.New(nil)}
}

// Publish fans the change out to all current subscribers.
func (h *Hub) Publish(change types.Change) {
	h.cast.TryPub(change)
}

// Notify lets the hub sit directly behind a store's notifier hook.
func (h *Hub) Notify(change types.Change) {
	h.Publish(change)
}

// Subscribe registers a subscriber and returns its change channel plus a
// cancel function. The channel closes when the context ends, cancel is
// called, or the hub closes. Cancel is idempotent and safe to call
// after the channel has closed.
func (h *Hub) Subscribe(ctx context.Context) (<-chan types.Change, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	subCtx, cancel := context.WithCancel(ctx)

	out := make(chan types.Change, subscriberBuffer)
	src, ok := h.cast.Sub(subCtx, subscriberBuffer)
	if !ok {
		cancel()
		close(out)
		return out, func() {}
	}

	go func() {
		defer close(out)
		for msg := range src {
			change, ok := msg.(types.Change)
			if !ok {
				continue
			}
			select {
			case out <- change:
			default:
				// Subscriber is not draining, the change is dropped.
			}
		}
	}()

	return out, cancel
}

// Close shuts the hub down. Pending subscriptions end and their
// channels close.
func (h *Hub) Close() {
	h.cast.Close()
}
