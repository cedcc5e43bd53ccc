package api

import "sync"

// userLocks hands out one mutex per user id; entries are dropped once unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

func (l *userLocks) lock(userId int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[userId]
	if !ok {
		entry = &userLock{}
		l.locks[userId] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userId)
		}
		l.mu.Unlock()
	}
}
