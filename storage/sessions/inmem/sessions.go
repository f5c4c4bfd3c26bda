package inmemsessions

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/attendance/storage/sessions"
)

type repository struct {
	mutex sync.RWMutex
	table map[string]sessions.Record
	now   func() time.Time
}

var _ sessions.Repository = (*repository)(nil) // interface compliance check

func NewRepository() sessions.Repository {
	return &repository{table: make(map[string]sessions.Record), now: time.Now}
}

func (repo *repository) Create(_ context.Context, rec sessions.Record) error {
	if rec.ID == "" {
		return errors.New("session ID is required")
	}
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	repo.table[rec.ID] = rec
	repo.purge()
	return nil
}

func (repo *repository) Get(_ context.Context, id string) (sessions.Record, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	rec, ok := repo.table[id]
	if !ok || rec.Expired(repo.now()) {
		return sessions.Record{}, sessions.ErrNotFound
	}
	return rec, nil
}

func (repo *repository) Delete(_ context.Context, id string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	delete(repo.table, id)
	return nil
}

// purge drops expired records. The caller must hold the write lock.
func (repo *repository) purge() {
	now := repo.now()
	for id, rec := range repo.table {
		if rec.Expired(now) {
			delete(repo.table, id)
		}
	}
}
