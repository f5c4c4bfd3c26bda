// Package sessions stores browser sessions: the API credential behind a signed cookie.
package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("session not found")

type Record struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"` // API bearer credential
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewRecord creates a record with a random ID, expiring after ttl.
func NewRecord(token string, ttl time.Duration) Record {
	now := time.Now().UTC()
	return Record{
		ID:        uuid.New().String(),
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (r Record) Expired(now time.Time) bool { return !now.Before(r.ExpiresAt) }

// TTL is the time left before the record expires.
func (r Record) TTL(now time.Time) time.Duration { return r.ExpiresAt.Sub(now) }

type Repository interface {
	Create(ctx context.Context, rec Record) error
	// Get returns ErrNotFound for unknown and expired records.
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}
