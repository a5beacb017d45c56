package memory

import (
	"testing"

	"quiz-attempt-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := &app.Session{}
	store.Put("u1:quiz-1", session)
	got, ok := store.Get("u1:quiz-1")
	if !ok || got != session {
		t.Fatalf("expected stored session, got %v %v", got, ok)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete("u1:quiz-1", &app.Session{})
	if _, ok := store.Get("u1:quiz-1"); !ok {
		t.Fatalf("delete of another session must keep the stored one")
	}

	store.Delete("u1:quiz-1", session)
	if _, ok := store.Get("u1:quiz-1"); ok {
		t.Fatalf("expected session removed")
	}
}
