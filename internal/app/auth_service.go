package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers users and issues revocable bearer tokens.
type AuthService struct {
	users   UserRepository
	revoked CheckpointStore
	secret  []byte
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuthService(users UserRepository, revoked CheckpointStore, secret string, ttl time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		users:   users,
		revoked: revoked,
		secret:  []byte(secret),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates an account; an email may only be registered once.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if err := reg.Validate(); err != nil {
		return domain.User{}, err
	}

	if _, err := s.users.UserByEmail(ctx, reg.Email); err == nil {
		return domain.User{}, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        reg.Email,
		Name:         strings.TrimSpace(reg.Name),
		Role:         reg.Role,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.User{}, domain.ErrBadCredentials
	}
	if err != nil {
		return "", domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrBadCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Set(ctx, revokedKey(claims.ID), "1", ttl)
}

// Authenticate resolves a bearer token to the current user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Actor, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Actor{}, err
	}
	if _, revoked, err := s.revoked.Get(ctx, revokedKey(claims.ID)); err != nil {
		return Actor{}, fmt.Errorf("check revocation: %w", err)
	} else if revoked {
		return Actor{}, domain.ErrUnauthorized
	}

	user, err := s.users.UserByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return Actor{}, domain.ErrUnauthorized
	}
	if err != nil {
		return Actor{}, err
	}
	return Actor{User: user}, nil
}

func (s *AuthService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func revokedKey(jti string) string {
	return "auth:revoked:" + jti
}
