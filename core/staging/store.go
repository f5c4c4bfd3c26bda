// Package staging holds server-parsed preview data awaiting confirmation.
package staging

import "sync"

// Store holds the staged records of one workflow. Records are only ever replaced wholesale.
type Store[T any] struct {
	clone func(T) T

	mu      sync.RWMutex
	records []T
}

// NewStore returns an empty store. Records are copied in and out with clone,
// which must deep-copy any slice or map they hold; nil copies them by value.
func NewStore[T any](clone func(T) T) *Store[T] {
	return &Store[T]{clone: clone}
}

// SetData replaces the staged records.
func (s *Store[T]) SetData(records []T) {
	cp := s.copy(records)

	s.mu.Lock()
	s.records = cp
	s.mu.Unlock()
}

// Data returns a copy of the staged records. Callers may modify it freely.
func (s *Store[T]) Data() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copy(s.records)
}

func (s *Store[T]) copy(records []T) []T {
	cp := make([]T, len(records))
	if s.clone == nil {
		copy(cp, records)
		return cp
	}
	for i, rec := range records {
		cp[i] = s.clone(rec)
	}
	return cp
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store[T]) Empty() bool { return s.Len() == 0 }

func (s *Store[T]) Reset() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}
