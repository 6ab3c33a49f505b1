// Package board provides the persistent store implementations for foco
// boards. It coordinates the storage envelope, query processing, order-key
// generation, and change notification behind the types.Store interface.
//
// Two backends exist: a JSON file store guarded by a cross-process file
// lock, suited to a single board checked into a directory, and a SQLite
// store for larger boards and concurrent tooling. New picks one from the
// path's extension.
package board

import (
	"errors"
	"time"

	"github.com/lawrns/foco/types"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store is closed")

	// ErrOrderConflict indicates an order key collided with a sibling and
	// retries against fresh neighbors were exhausted. Concurrent writers
	// racing on one column can trigger it; callers should re-read and try
	// again.
	ErrOrderConflict = errors.New("order key conflict")

	// ErrHasChildren indicates a non-cascading delete hit a record that
	// still owns others.
	ErrHasChildren = errors.New("record has children")
)

// TestStore extends types.Store with hooks tests need.
type TestStore interface {
	types.Store

	// SetTimeFunc sets a custom clock for deterministic timestamps.
	SetTimeFunc(fn func() time.Time)
}

// Notifier receives a change notification after each successful mutation.
// The realtime hub satisfies this; stores call it outside their locks, and
// implementations must not block.
type Notifier interface {
	Notify(change types.Change)
}

// orderRetries bounds how often a mutation regenerates a colliding order
// key against fresh neighbors before giving up with ErrOrderConflict.
const orderRetries = 3
