package memory

import (
	"context"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()
	user := domain.User{ID: "u1", Email: "ann@example.com", Role: domain.RoleStudent}

	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateUser(ctx, domain.User{ID: "u2", Email: "ann@example.com"}); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	byEmail, err := store.UserByEmail(ctx, "ann@example.com")
	if err != nil || byEmail.ID != "u1" {
		t.Fatalf("lookup by email: %+v %v", byEmail, err)
	}
	if _, err := store.UserByID(ctx, "u2"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
