package storage

import (
	"sync"
)

// OperationType defines whether an operation is read or write. The
// distinction lets the LockManager take a shared lock for reads and an
// exclusive lock for writes.
type OperationType int

const (
	// ReadOperation indicates an operation that only reads data.
	// Multiple read operations can proceed concurrently.
	ReadOperation OperationType = iota

	// WriteOperation indicates an operation that modifies data. Writes
	// are exclusive: no other reads or writes proceed while one runs.
	WriteOperation
)

// LockManager centralizes lock handling for store operations. Every store
// method funnels its body through Execute or ExecuteWithResult, which
// keeps lock acquisition in one place and rules out lock/unlock/relock
// mistakes spread across call sites.
//
// Backed by sync.RWMutex: concurrent readers, exclusive writers.
type LockManager struct {
	mu *sync.RWMutex
}

// NewLockManager creates a lock manager ready for concurrent use.
func NewLockManager() *LockManager {
	return &LockManager{
		mu: &sync.RWMutex{},
	}
}

// Execute runs fn under the lock appropriate for the operation type. The
// lock is released via defer, so fn panicking cannot leak it.
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case WriteOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

// ExecuteWithResult is Execute for functions that also return a value.
// The caller type-asserts the result.
func (lm *LockManager) ExecuteWithResult(opType OperationType, fn func() (interface{}, error)) (interface{}, error) {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case WriteOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}
