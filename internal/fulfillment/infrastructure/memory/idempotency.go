package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IdemStore is the in-memory counterpart of the Redis idempotency store.
type IdemStore struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewIdemStore() *IdemStore {
	return &IdemStore{held: make(map[string]bool)}
}

func (s *IdemStore) Key(userID uuid.UUID, key string) string {
	return fmt.Sprintf("idem:checkout:%s:%s", userID, key)
}

func (s *IdemStore) Acquire(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[key] {
		return false, nil
	}
	s.held[key] = true
	return true, nil
}

func (s *IdemStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, key)
	return nil
}
