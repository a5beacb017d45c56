package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func newAuthService() *app.AuthService {
	return app.NewAuthService(memory.NewUserStore(), memory.NewCheckpointStore(), "test-secret", time.Hour, nil)
}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	auth := newAuthService()

	user, err := auth.Register(ctx, domain.Registration{
		Email: " Ann@Example.com ", Name: "Ann", Role: domain.RoleStudent, Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ann@example.com" || user.PasswordHash == "" || user.PasswordHash == "hunter22" {
		t.Fatalf("unexpected user %+v", user)
	}

	_, err = auth.Register(ctx, domain.Registration{
		Email: "ann@example.com", Name: "Ann", Role: domain.RoleStudent, Password: "hunter22",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	if _, _, err := auth.Login(ctx, "ann@example.com", "wrong-pass"); !errors.Is(err, domain.ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, domain.ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for unknown email, got %v", err)
	}

	token, _, err := auth.Login(ctx, "ANN@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	actor, err := auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.User.ID != user.ID {
		t.Fatalf("expected actor %s, got %s", user.ID, actor.User.ID)
	}

	if err := auth.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := auth.Authenticate(ctx, token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected revoked token rejected, got %v", err)
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	auth := newAuthService()
	if _, err := auth.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	other := app.NewAuthService(memory.NewUserStore(), memory.NewCheckpointStore(), "other-secret", time.Hour, nil)
	ctx := context.Background()
	_, _ = other.Register(ctx, domain.Registration{Email: "b@example.com", Name: "B", Role: domain.RoleTeacher, Password: "secret1"})
	token, _, err := other.Login(ctx, "b@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := auth.Authenticate(ctx, token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected token from another secret rejected, got %v", err)
	}
}
