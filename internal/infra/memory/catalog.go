package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
	"github.com/google/uuid"
)

// Catalog is an in-memory quiz and submission store. It serves as quiz loader,
// catalog repository and submission gateway for demos and tests.
type Catalog struct {
	users *UserStore
	clock func() time.Time

	mu          sync.RWMutex
	quizzes     map[string]domain.Quiz
	submissions []domain.SubmissionRecord
}

// NewCatalog seeds the catalog with quizzes. users may be nil, in which case
// score entries carry no email.
func NewCatalog(users *UserStore, seed ...domain.Quiz) *Catalog {
	c := &Catalog{
		users:   users,
		clock:   time.Now,
		quizzes: make(map[string]domain.Quiz, len(seed)),
	}
	for _, quiz := range seed {
		c.quizzes[quiz.ID] = cloneQuiz(quiz)
	}
	return c
}

func (c *Catalog) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quiz, ok := c.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (c *Catalog) ListQuizzes(_ context.Context, ownerID string) ([]domain.QuizSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.QuizSummary, 0, len(c.quizzes))
	for _, q := range c.quizzes {
		if ownerID != "" && q.UserID != ownerID {
			continue
		}
		out = append(out, summarize(q))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Catalog) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes[quiz.ID] = cloneQuiz(quiz)
	return cloneQuiz(quiz), nil
}

func (c *Catalog) UpdateQuiz(_ context.Context, ownerID string, quiz domain.Quiz) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.quizzes[quiz.ID]
	if !ok || existing.UserID != ownerID {
		return domain.ErrQuizNotFound
	}

	existing.Title = quiz.Title
	existing.Author = quiz.Author
	existing.Description = quiz.Description
	existing.TimeLimitMinutes = quiz.TimeLimitMinutes

	positions := make(map[string]int, len(existing.Questions))
	for i, q := range existing.Questions {
		positions[q.ID] = i
	}
	for _, q := range quiz.Questions {
		if _, ok := positions[q.ID]; !ok && c.questionTakenLocked(quiz.ID, q.ID) {
			return domain.ErrInvalidQuiz
		}
	}
	for _, q := range quiz.Questions {
		if i, ok := positions[q.ID]; ok {
			existing.Questions[i] = q
			continue
		}
		existing.Questions = append(existing.Questions, q)
	}
	c.quizzes[quiz.ID] = cloneQuiz(existing)
	return nil
}

// CreateSubmission records a score. Every call inserts a new record.
func (c *Catalog) CreateSubmission(_ context.Context, submission domain.NewSubmission) (domain.SubmissionRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quizzes[submission.QuizID]; !ok {
		return domain.SubmissionRecord{}, domain.ErrQuizNotFound
	}
	record := domain.SubmissionRecord{
		ID:        uuid.NewString(),
		QuizID:    submission.QuizID,
		UserID:    submission.UserID,
		Score:     submission.Score,
		CreatedAt: c.clock().UTC(),
	}
	c.submissions = append(c.submissions, record)
	return record, nil
}

func (c *Catalog) ScoresByUser(ctx context.Context, userID string) ([]domain.ScoreEntry, error) {
	var email string
	if c.users != nil {
		if user, err := c.users.UserByID(ctx, userID); err == nil {
			email = user.Email
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.ScoreEntry, 0)
	for _, record := range c.submissions {
		if record.UserID != userID {
			continue
		}
		quiz := c.quizzes[record.QuizID]
		out = append(out, domain.ScoreEntry{
			SubmissionRecord: record,
			QuizTitle:        quiz.Title,
			QuizAuthor:       quiz.Author,
			TimeLimitMinutes: quiz.TimeLimitMinutes,
			Email:            email,
		})
	}
	return out, nil
}

// Submissions returns every recorded submission, oldest first.
func (c *Catalog) Submissions() []domain.SubmissionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.SubmissionRecord, len(c.submissions))
	copy(out, c.submissions)
	return out
}

func (c *Catalog) questionTakenLocked(quizID, questionID string) bool {
	for id, quiz := range c.quizzes {
		if id == quizID {
			continue
		}
		for _, q := range quiz.Questions {
			if q.ID == questionID {
				return true
			}
		}
	}
	return false
}

func summarize(q domain.Quiz) domain.QuizSummary {
	return domain.QuizSummary{
		ID:               q.ID,
		UserID:           q.UserID,
		Title:            q.Title,
		Author:           q.Author,
		Description:      q.Description,
		TimeLimitMinutes: q.TimeLimitMinutes,
		CreatedAt:        q.CreatedAt,
	}
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	out := q
	out.Questions = make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Answers = append([]string(nil), question.Answers...)
		out.Questions[i] = question
	}
	return out
}
