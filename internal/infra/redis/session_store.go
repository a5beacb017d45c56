package redis

import (
	"context"
	"sync"
	"time"

	"quiz-attempt-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Attempts stay in a local map; timers and subscribers cannot be shared
//     across processes.
//   - Redis carries a liveness marker per attempt so operators can see which
//     instance holds which attempt. It lives until the deadline plus ttl and
//     is removed with the attempt.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	instance string

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, instance string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		instance: instance,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Get(key string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

func (s *SessionStore) Put(key string, session *app.Session) {
	s.mu.Lock()
	s.sessions[key] = session
	s.mu.Unlock()

	ttl := s.ttl
	if remaining := time.Until(session.Deadline()); remaining > 0 {
		ttl += remaining
	}
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(key), s.instance, ttl).Err()
}

func (s *SessionStore) Delete(key string, session *app.Session) {
	s.mu.Lock()
	if s.sessions[key] != session {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, key)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(key)).Err()
}

func (s *SessionStore) key(key string) string {
	return "quiz:attempt:active:" + key
}
