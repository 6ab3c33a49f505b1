package board

import (
	"context"
	"sync"
	"time"
)

// MockFileLock is an in-memory FileLock for tests. It never touches the
// disk; SetHeld simulates another process holding the lock.
type MockFileLock struct {
	mu   sync.Mutex
	held bool

	LockAttempts   int
	UnlockAttempts int
	LockErr        error
}

// TryLockContext implements FileLock.
func (m *MockFileLock) TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LockAttempts++
	if m.LockErr != nil {
		return false, m.LockErr
	}
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}

// Unlock implements FileLock.
func (m *MockFileLock) Unlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UnlockAttempts++
	m.held = false
	return nil
}

// SetHeld marks the lock as held or free, as if another process owned it.
func (m *MockFileLock) SetHeld(held bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = held
}

// MockFileLockFactory hands out one MockFileLock per path so tests can
// reach the lock a store is using.
type MockFileLockFactory struct {
	mu    sync.Mutex
	locks map[string]*MockFileLock
}

// NewMockFileLockFactory creates a new mock factory.
func NewMockFileLockFactory() *MockFileLockFactory {
	return &MockFileLockFactory{
		locks: make(map[string]*MockFileLock),
	}
}

// New implements FileLockFactory.
func (f *MockFileLockFactory) New(path string) FileLock {
	f.mu.Lock()
	defer f.mu.Unlock()

	if lock, exists := f.locks[path]; exists {
		return lock
	}
	lock := &MockFileLock{}
	f.locks[path] = lock
	return lock
}

// GetLock returns the lock previously created for path, or nil.
func (f *MockFileLockFactory) GetLock(path string) *MockFileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locks[path]
}
