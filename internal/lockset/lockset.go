// Package lockset serializes work per key inside one process
package lockset

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Set hands out one mutex per key. Entries are dropped once nobody holds or
// waits for them
type Set struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *Set {
	return &Set{locks: make(map[string]*entry)}
}

// Lock blocks until key is free and returns the function releasing it
func (s *Set) Lock(key string) (unlock func()) {
	s.mu.Lock()
	e, ok := s.locks[key]
	if !ok {
		e = &entry{}
		s.locks[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		s.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func (s *Set) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.locks)
}
