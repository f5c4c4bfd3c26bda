package redissessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/storage/sessions"
)

const keyPrefix = "attendance:session:"

type repository struct {
	client *redis.Client
}

var _ sessions.Repository = (*repository)(nil) // interface compliance check

func NewRepository(client *redis.Client) sessions.Repository {
	return &repository{client: client}
}

// NewClient connects to redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", addr)
	}
	return client, nil
}

func key(id string) string { return keyPrefix + id }

func (repo *repository) Create(ctx context.Context, rec sessions.Record) error {
	if rec.ID == "" {
		return errors.New("session ID is required")
	}
	ttl := rec.TTL(time.Now())
	if ttl <= 0 {
		return errors.Errorf("session %s is already expired", rec.ID)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(repo.client.Set(ctx, key(rec.ID), data, ttl).Err(), "storing session")
}

func (repo *repository) Get(ctx context.Context, id string) (sessions.Record, error) {
	data, err := repo.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sessions.Record{}, sessions.ErrNotFound
		}
		return sessions.Record{}, errors.Wrap(err, "loading session")
	}

	var rec sessions.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return sessions.Record{}, errors.Wrap(err, "decoding session")
	}
	if rec.Expired(time.Now()) {
		return sessions.Record{}, sessions.ErrNotFound
	}
	return rec, nil
}

func (repo *repository) Delete(ctx context.Context, id string) error {
	return errors.Wrap(repo.client.Del(ctx, key(id)).Err(), "deleting session")
}
