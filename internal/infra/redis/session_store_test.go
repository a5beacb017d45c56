package redis

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, client := newClient(t)
	store := NewSessionStore(client, "node-a", time.Minute)

	catalog := memory.NewCatalog(nil, sampleQuiz())
	service := app.NewAttemptService(
		store,
		memory.NewQuizRepository(catalog, time.Minute),
		NewCheckpointStore(client),
		catalog,
		app.WithTickInterval(0),
	)
	actor := app.Actor{User: domain.User{ID: "u1"}}
	if _, err := service.Start(context.Background(), actor, "quiz-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	marker := "quiz:attempt:active:u1:quiz-1"
	owner, err := mr.Get(marker)
	if err != nil || owner != "node-a" {
		t.Fatalf("expected liveness marker, got %q err=%v", owner, err)
	}
	if _, ok := store.Get("u1:quiz-1"); !ok {
		t.Fatalf("expected session held locally")
	}
	if !mr.Exists("attempt:u1:quiz-1:deadline") || !mr.Exists("attempt:u1:quiz-1:answers") {
		t.Fatalf("expected checkpoints in redis")
	}

	if ttl := mr.TTL(marker); ttl <= time.Minute {
		t.Fatalf("expected marker to outlive the attempt deadline, got ttl %v", ttl)
	}

	session, _ := store.Get("u1:quiz-1")
	store.Delete("u1:quiz-1", &app.Session{})
	if !mr.Exists(marker) {
		t.Fatalf("delete of another session must keep the marker")
	}

	store.Delete("u1:quiz-1", session)
	if mr.Exists(marker) {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("u1:quiz-1"); ok {
		t.Fatalf("expected session removed")
	}
}
