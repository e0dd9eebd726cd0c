package service

import (
	"sync"
)

// projectLocks serializes structural mutations per project. Two concurrent
// moves in the same project, or a move racing a cycle-check read, must not
// interleave in a way that breaks the acyclicity invariant.
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the project's mutex and returns the unlock function.
func (l *projectLocks) Acquire(projectID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[projectID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
