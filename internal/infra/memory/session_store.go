package memory

import (
	"sync"

	"quiz-attempt-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Get(key string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

// Put replaces any previous (finished) attempt stored under key.
func (s *SessionStore) Put(key string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = session
}

func (s *SessionStore) Delete(key string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[key] == session {
		delete(s.sessions, key)
	}
}

// Len reports how many attempts are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
