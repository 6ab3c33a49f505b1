package board

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is the cross-process lock the JSON backend holds across its
// load-modify-save cycle.
type FileLock interface {
	// TryLockContext attempts to acquire an exclusive lock, retrying at
	// the given interval until the context is done.
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	// Unlock releases the lock.
	Unlock() error
}

// FileLockFactory creates FileLock instances for a lock file path.
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockWrapper adapts github.com/gofrs/flock to the FileLock interface.
type FlockWrapper struct {
	flock *flock.Flock
}

// TryLockContext implements FileLock.
func (f *FlockWrapper) TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error) {
	return f.flock.TryLockContext(ctx, retryInterval)
}

// Unlock implements FileLock.
func (f *FlockWrapper) Unlock() error {
	return f.flock.Unlock()
}

// FlockFactory is the default FileLockFactory backed by flock.
type FlockFactory struct{}

// New implements FileLockFactory.
func (f *FlockFactory) New(path string) FileLock {
	return &FlockWrapper{
		flock: flock.New(path),
	}
}
