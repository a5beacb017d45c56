package app

import (
	"context"
	"time"

	"quiz-attempt-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// CheckpointStore is the key-value port used to checkpoint in-progress attempts.
// A missing key is reported with ok=false and a nil error.
type CheckpointStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SessionRepository abstracts where active attempts are held (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Get(key string) (*Session, bool)
	Put(key string, session *Session)
	// Delete removes key only while it still holds session, so a newer
	// attempt stored under the same key survives.
	Delete(key string, session *Session)
}

// SubmissionGateway durably records a finished attempt. No idempotency key is
// sent, so callers must invoke it at most once per attempt.
type SubmissionGateway interface {
	CreateSubmission(ctx context.Context, submission domain.NewSubmission) (domain.SubmissionRecord, error)
}

// SubmissionNotifier is told about recorded submissions (e.g. to feed leaderboards).
type SubmissionNotifier interface {
	NotifySubmitted(ctx context.Context, record domain.SubmissionRecord) error
}

// CatalogRepository stores authored quizzes and reads recorded scores.
type CatalogRepository interface {
	// ListQuizzes returns quizzes newest first, only ownerID's when it is set.
	ListQuizzes(ctx context.Context, ownerID string) ([]domain.QuizSummary, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	// UpdateQuiz rewrites quiz metadata and upserts questions by ID. Questions
	// absent from quiz are left in place. It returns ErrQuizNotFound if ownerID
	// does not own the quiz.
	UpdateQuiz(ctx context.Context, ownerID string, quiz domain.Quiz) error
	ScoresByUser(ctx context.Context, userID string) ([]domain.ScoreEntry, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
}

// Actor is the authenticated caller, passed explicitly into every use case.
type Actor struct {
	User domain.User
}
