package nav

import (
	"sync"
	"time"
)

// Store keeps one Session per conversation key in memory.
type Store[F any] struct {
	mu       sync.Mutex
	sessions map[int64]*Session[F]
}

func NewStore[F any]() *Store[F] {
	return &Store[F]{sessions: make(map[int64]*Session[F])}
}

// Acquire returns the session for key, creating it if needed, locked for the
// caller. Updates for one conversation are therefore applied one at a time.
func (s *Store[F]) Acquire(key int64) (*Session[F], func()) {
	s.mu.Lock()
	session, ok := s.sessions[key]
	if !ok {
		session = newSession[F]()
		s.sessions[key] = session
	}
	s.mu.Unlock()

	session.mu.Lock()
	return session, session.mu.Unlock
}

// Clear drops the session for key.
func (s *Store[F]) Clear(key int64) {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}

func (s *Store[F]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many were removed.
func (s *Store[F]) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, session := range s.sessions {
		if !session.mu.TryLock() {
			continue
		}
		idle := session.UpdatedAt.Before(cutoff)
		session.mu.Unlock()
		if idle {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}
