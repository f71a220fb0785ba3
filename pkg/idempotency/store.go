// Package idempotency guards client-initiated mutations with a Redis lease.
// A checkout attempt supplies an idempotency key; the first caller to
// acquire the key proceeds, and concurrent or repeated submissions of the
// same key are rejected until the lease expires. A failed attempt releases
// its lease so the client can retry with the same key.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Key scopes an idempotency key to its user so one user's key cannot
// collide with another's.
func (s *Store) Key(userID uuid.UUID, key string) string {
	return fmt.Sprintf("idem:checkout:%s:%s", userID, key)
}

// Acquire takes the lease for key. It returns false when the key is already
// held, meaning the same logical operation is in flight or has completed
// within the TTL.
func (s *Store) Acquire(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
}

// Release drops the lease after a failed attempt.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
