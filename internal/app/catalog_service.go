package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"
	"github.com/google/uuid"
)

// CatalogService covers quiz authoring and the score listing.
type CatalogService struct {
	repo    CatalogRepository
	quizzes QuizRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewCatalogService(repo CatalogRepository, quizzes QuizRepository, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{repo: repo, quizzes: quizzes, logger: logger, now: time.Now}
}

// ListQuizzes lists every quiz, or only the actor's own when mine is set.
func (s *CatalogService) ListQuizzes(ctx context.Context, actor Actor, mine bool) ([]domain.QuizSummary, error) {
	if !mine {
		return s.repo.ListQuizzes(ctx, "")
	}
	if actor.User.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ListQuizzes(ctx, actor.User.ID)
}

// GetQuiz returns the quiz for the actor. Only the owner sees correct answers.
func (s *CatalogService) GetQuiz(ctx context.Context, actor Actor, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if actor.User.ID == "" || actor.User.ID != quiz.UserID {
		return quiz.Public(), nil
	}
	return quiz, nil
}

// CreateQuiz stores a new quiz owned by the actor.
func (s *CatalogService) CreateQuiz(ctx context.Context, actor Actor, draft domain.QuizDraft) (domain.Quiz, error) {
	if actor.User.ID == "" {
		return domain.Quiz{}, domain.ErrUnauthorized
	}
	if actor.User.Role != domain.RoleTeacher {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if err := draft.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	quiz := fromDraft(uuid.NewString(), actor.User.ID, draft)
	quiz.CreatedAt = s.now().UTC()
	created, err := s.repo.CreateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	s.logger.Info("quiz created", "quiz_id", created.ID, "user_id", actor.User.ID, "questions", len(created.Questions))
	return created, nil
}

// UpdateQuiz rewrites a quiz owned by the actor. Questions with an ID are
// updated, the rest are appended; questions missing from the draft are kept.
// An ID that is not one of the quiz's questions is rejected.
func (s *CatalogService) UpdateQuiz(ctx context.Context, actor Actor, quizID string, draft domain.QuizDraft) error {
	if actor.User.ID == "" {
		return domain.ErrUnauthorized
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	existing, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if existing.UserID != actor.User.ID {
		return domain.ErrForbidden
	}
	owned := make(map[string]struct{}, len(existing.Questions))
	for _, q := range existing.Questions {
		owned[q.ID] = struct{}{}
	}
	for _, q := range draft.Questions {
		if q.ID == "" {
			continue
		}
		if _, ok := owned[q.ID]; !ok {
			return fmt.Errorf("%w: question %s is not part of quiz %s", domain.ErrInvalidQuiz, q.ID, quizID)
		}
	}

	quiz := fromDraft(quizID, actor.User.ID, draft)
	quiz.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateQuiz(ctx, actor.User.ID, quiz); err != nil {
		return fmt.Errorf("update quiz %s: %w", quizID, err)
	}
	if err := s.quizzes.Invalidate(ctx, quizID); err != nil {
		s.logger.Warn("invalidate cached quiz", "quiz_id", quizID, "error", err)
	}
	return nil
}

// ScoresByUser lists the actor's recorded submissions.
func (s *CatalogService) ScoresByUser(ctx context.Context, actor Actor) ([]domain.ScoreEntry, error) {
	if actor.User.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.ScoresByUser(ctx, actor.User.ID)
}

func fromDraft(quizID, userID string, draft domain.QuizDraft) domain.Quiz {
	quiz := domain.Quiz{
		ID:               quizID,
		UserID:           userID,
		Title:            strings.TrimSpace(draft.Title),
		Author:           strings.TrimSpace(draft.Author),
		Description:      draft.Description,
		TimeLimitMinutes: draft.TimeLimitMinutes,
		Questions:        make([]domain.Question, 0, len(draft.Questions)),
	}
	for _, q := range draft.Questions {
		id := q.ID
		if id == "" {
			id = uuid.NewString()
		}
		answers := make([]string, len(q.Answers))
		copy(answers, q.Answers)
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            id,
			Prompt:        q.Prompt,
			Answers:       answers,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return quiz
}
