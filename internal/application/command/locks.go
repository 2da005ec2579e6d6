// Package command contains the write-side operations of the engine.
// Each command follows the same shape: an input struct with Validate(),
// a result struct, and a handler that orchestrates domain objects and
// repositories.
package command

import (
	"sync"
)

// UserLocks serializes mutations per user. All command handlers acquire the
// user's lock before reading progression state, so read-modify-write cycles
// on one user never interleave. Different users proceed in parallel.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewUserLocks creates an empty lock table.
func NewUserLocks() *UserLocks {
	return &UserLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for the user, creating it on first use.
// Locks are never removed; the table grows with the active user set.
func (l *UserLocks) Lock(userID string) {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
}

// Unlock releases the user's mutex.
func (l *UserLocks) Unlock(userID string) {
	l.mu.Lock()
	m := l.locks[userID]
	l.mu.Unlock()

	if m != nil {
		m.Unlock()
	}
}
