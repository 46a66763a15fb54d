package web

import "sync"

// keyedLock is a set of non-blocking mutexes, one per key.
type keyedLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// TryLock acquires key and reports whether it was free.
func (l *keyedLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]struct{})
	}
	if _, busy := l.held[key]; busy {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Unlock releases key.
func (l *keyedLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
