package service

import "sync"

// sessionLocks serializes answer submissions per session id. Submissions
// for different sessions proceed in parallel; two submissions for the same
// session run one after the other so the append-only log never forks.
//
// Locks are never evicted; one mutex per active session id is small enough
// for a single-process deployment.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire returns the mutex for the session id, creating it on first use.
// The caller locks and unlocks the returned mutex.
func (l *sessionLocks) acquire(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	return m
}
