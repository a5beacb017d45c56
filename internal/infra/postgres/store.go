package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-attempt-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

// Store is the bun-backed catalog and account store.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"user_id"`
	Title       string    `bun:"title"`
	Author      string    `bun:"author"`
	Description string    `bun:"description"`
	TimeLimit   int       `bun:"time_limit"`
	CreatedAt   time.Time `bun:"created_at"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID            string   `bun:"id,pk"`
	QuizID        string   `bun:"quiz_id"`
	Position      int      `bun:"position"`
	Prompt        string   `bun:"prompt"`
	Answers       []string `bun:"answers,array"`
	CorrectAnswer int      `bun:"correct_answer"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email"`
	Name         string    `bun:"name"`
	Role         string    `bun:"role"`
	PasswordHash string    `bun:"password_hash"`
	CreatedAt    time.Time `bun:"created_at"`
}

type scoreRow struct {
	ID         string    `bun:"id"`
	QuizID     string    `bun:"quiz_id"`
	UserID     string    `bun:"user_id"`
	Score      int       `bun:"score"`
	CreatedAt  time.Time `bun:"created_at"`
	QuizTitle  string    `bun:"quiz_title"`
	QuizAuthor string    `bun:"quiz_author"`
	TimeLimit  int       `bun:"time_limit"`
	Email      string    `bun:"email"`
}

func (s *Store) ListQuizzes(ctx context.Context, ownerID string) ([]domain.QuizSummary, error) {
	var rows []quizRow
	q := s.db.NewSelect().Model(&rows).OrderExpr("created_at DESC, id")
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.QuizSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.summary())
	}
	return out, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	row := quizRowFrom(quiz)
	questions := questionRowsFrom(quiz)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&questions).Exec(ctx)
		return err
	})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

// UpdateQuiz rewrites quiz metadata and upserts questions by ID. New questions
// are appended after the existing ones.
func (s *Store) UpdateQuiz(ctx context.Context, ownerID string, quiz domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := quizRowFrom(quiz)
		res, err := tx.NewUpdate().Model(&row).
			Column("title", "author", "description", "time_limit").
			Where("id = ? AND user_id = ?", quiz.ID, ownerID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update quiz: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrQuizNotFound
		}

		var existing []questionRow
		if err := tx.NewSelect().Model(&existing).Where("quiz_id = ?", quiz.ID).Scan(ctx); err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		positions := make(map[string]int, len(existing))
		next := 0
		for _, q := range existing {
			positions[q.ID] = q.Position
			if q.Position >= next {
				next = q.Position + 1
			}
		}

		questions := questionRowsFrom(quiz)
		for i := range questions {
			if pos, ok := positions[questions[i].ID]; ok {
				questions[i].Position = pos
				continue
			}
			questions[i].Position = next
			next++
		}
		if len(questions) == 0 {
			return nil
		}
		// A conflicting row of another quiz is left alone and not counted.
		res, err = tx.NewInsert().Model(&questions).
			On("CONFLICT (id) DO UPDATE").
			Set("prompt = EXCLUDED.prompt").
			Set("answers = EXCLUDED.answers").
			Set("correct_answer = EXCLUDED.correct_answer").
			Where("qn.quiz_id = EXCLUDED.quiz_id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert questions: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n < int64(len(questions)) {
			return fmt.Errorf("%w: question belongs to another quiz", domain.ErrInvalidQuiz)
		}
		return nil
	})
}

func (s *Store) ScoresByUser(ctx context.Context, userID string) ([]domain.ScoreEntry, error) {
	var rows []scoreRow
	err := s.db.NewSelect().
		TableExpr("submissions AS s").
		ColumnExpr("s.id, s.quiz_id, s.user_id, s.score, s.created_at").
		ColumnExpr("q.title AS quiz_title, q.author AS quiz_author, q.time_limit").
		ColumnExpr("COALESCE(u.email, '') AS email").
		Join("JOIN quizzes AS q ON q.id = s.quiz_id").
		Join("LEFT JOIN users AS u ON u.id = s.user_id").
		Where("s.user_id = ?", userID).
		OrderExpr("s.created_at DESC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("scores by user: %w", err)
	}
	out := make([]domain.ScoreEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ScoreEntry{
			SubmissionRecord: domain.SubmissionRecord{
				ID:        row.ID,
				QuizID:    row.QuizID,
				UserID:    row.UserID,
				Score:     row.Score,
				CreatedAt: row.CreatedAt,
			},
			QuizTitle:        row.QuizTitle,
			QuizAuthor:       row.QuizAuthor,
			TimeLimitMinutes: row.TimeLimit,
			Email:            row.Email,
		})
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	row := userRow{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.userWhere(ctx, "email = ?", email)
}

func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

func (s *Store) userWhere(ctx context.Context, query string, arg string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where(query, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		Role:         domain.Role(row.Role),
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func quizRowFrom(q domain.Quiz) quizRow {
	return quizRow{
		ID:          q.ID,
		UserID:      q.UserID,
		Title:       q.Title,
		Author:      q.Author,
		Description: q.Description,
		TimeLimit:   q.TimeLimitMinutes,
		CreatedAt:   q.CreatedAt,
	}
}

func questionRowsFrom(q domain.Quiz) []questionRow {
	rows := make([]questionRow, 0, len(q.Questions))
	for i, question := range q.Questions {
		rows = append(rows, questionRow{
			ID:            question.ID,
			QuizID:        q.ID,
			Position:      i,
			Prompt:        question.Prompt,
			Answers:       question.Answers,
			CorrectAnswer: question.CorrectAnswer,
		})
	}
	return rows
}

func (r quizRow) summary() domain.QuizSummary {
	return domain.QuizSummary{
		ID:               r.ID,
		UserID:           r.UserID,
		Title:            r.Title,
		Author:           r.Author,
		Description:      r.Description,
		TimeLimitMinutes: r.TimeLimit,
		CreatedAt:        r.CreatedAt,
	}
}
