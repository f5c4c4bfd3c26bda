package redissessions

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/attendance/storage/sessions"
)

// set TEST_REDIS_ADDR to run against a live redis
func setup(t *testing.T) sessions.Repository {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	client, err := NewClient(context.Background(), addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRepository(client)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	rec := sessions.NewRecord("tok", time.Minute)
	require.NoError(t, repo.Create(ctx, rec))
	t.Cleanup(func() { _ = repo.Delete(ctx, rec.ID) })

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Token, got.Token)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, repo.Delete(ctx, rec.ID))
	_, err = repo.Get(ctx, rec.ID)
	assert.Equal(t, sessions.ErrNotFound, err)
}

func TestRepository_Expired(t *testing.T) {
	repo := setup(t)
	rec := sessions.NewRecord("tok", -time.Second)
	assert.Error(t, repo.Create(context.Background(), rec))
}
