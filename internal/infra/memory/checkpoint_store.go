package memory

import (
	"context"
	"sync"
	"time"
)

// CheckpointStore is an in-process key-value store honouring TTLs. It backs
// attempt checkpoints and token revocations when no Redis is configured.
type CheckpointStore struct {
	clock func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func NewCheckpointStore() *CheckpointStore {
	return NewCheckpointStoreWithClock(time.Now)
}

func NewCheckpointStoreWithClock(clock func() time.Time) *CheckpointStore {
	return &CheckpointStore{clock: clock, entries: make(map[string]entry)}
}

func (s *CheckpointStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.clock()) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *CheckpointStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.clock().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *CheckpointStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}
