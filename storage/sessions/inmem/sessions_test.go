package inmemsessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/attendance/storage/sessions"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	rec := sessions.NewRecord("tok", time.Hour)
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	_, err = repo.Get(ctx, rec.ID)
	assert.Equal(t, sessions.ErrNotFound, err)

	assert.NoError(t, repo.Delete(ctx, "unknown"))
	assert.Error(t, repo.Create(ctx, sessions.Record{}))
}

func TestRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &repository{table: make(map[string]sessions.Record), now: func() time.Time { return now }}

	old := sessions.Record{ID: "old", Token: "a", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	fresh := sessions.Record{ID: "fresh", Token: "b", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}

	repo.table[old.ID] = old
	_, err := repo.Get(ctx, old.ID)
	assert.Equal(t, sessions.ErrNotFound, err)

	require.NoError(t, repo.Create(ctx, fresh))
	assert.NotContains(t, repo.table, old.ID)
	assert.Contains(t, repo.table, fresh.ID)
}
