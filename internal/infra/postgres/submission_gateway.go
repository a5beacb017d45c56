package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-attempt-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

const foreignKeyViolation = "23503"

// SubmissionGateway inserts finished attempts into the submissions table.
// Every call inserts a new row.
type SubmissionGateway struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewSubmissionGateway(pool *pgxpool.Pool, timeout time.Duration) *SubmissionGateway {
	return &SubmissionGateway{pool: pool, timeout: timeout}
}

func (g *SubmissionGateway) CreateSubmission(ctx context.Context, submission domain.NewSubmission) (domain.SubmissionRecord, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	record := domain.SubmissionRecord{
		ID:     uuid.NewString(),
		QuizID: submission.QuizID,
		UserID: submission.UserID,
		Score:  submission.Score,
	}
	err := g.pool.QueryRow(ctx,
		`INSERT INTO submissions (id, quiz_id, user_id, score) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		record.ID, record.QuizID, record.UserID, record.Score,
	).Scan(&record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.SubmissionRecord{}, domain.ErrQuizNotFound
		}
		return domain.SubmissionRecord{}, fmt.Errorf("insert submission: %w", err)
	}
	return record, nil
}
