package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
)

// Fetcher asks the API who the current user is.
type Fetcher func(ctx context.Context) (Session, error)

// Store holds the session of one page session.
// It is resolved at most once; a failed resolution settles to nil.
type Store struct {
	fetch  Fetcher
	logger core.Logger

	mu       sync.RWMutex
	resolved bool
	current  *Session

	once sync.Once
}

func NewStore(fetch Fetcher, logger core.Logger) *Store {
	return &Store{fetch: fetch, logger: logger}
}

// NewResolvedStore returns a Store that is already settled to sess (which may be nil).
func NewResolvedStore(sess *Session) *Store {
	st := &Store{resolved: true, current: sess}
	st.once.Do(func() {})
	return st
}

// Bootstrap resolves the session. Concurrent and repeated calls fetch only once;
// every caller returns after the store has settled.
func (st *Store) Bootstrap(ctx context.Context) {
	st.once.Do(func() {
		var current *Session
		if st.fetch != nil {
			sess, err := st.fetch(ctx)
			if err != nil {
				if st.logger != nil {
					st.logger.Info("session bootstrap settled to anonymous", errors.Wrap(err, "fetching session"))
				}
			} else {
				current = &sess
			}
		}

		st.mu.Lock()
		st.current = current
		st.resolved = true
		st.mu.Unlock()
	})
}

// Current returns the session and whether the store has settled.
// A settled store with a nil session means nobody is logged in.
func (st *Store) Current() (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if !st.resolved {
		return nil, false
	}
	if st.current == nil {
		return nil, true
	}
	sess := *st.current
	return &sess, true
}

// Clear settles the store to nil (logout).
func (st *Store) Clear() {
	st.once.Do(func() {})
	st.mu.Lock()
	st.current = nil
	st.resolved = true
	st.mu.Unlock()
}
