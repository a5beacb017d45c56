package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, client := newClient(t)
	loader := &countingLoader{catalog: memory.NewCatalog(nil, sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected quiz content cached")
	}
	if ttl := mr.TTL("quiz:quiz-1:content"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get cached quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Questions[0].CorrectAnswer != quiz.Questions[0].CorrectAnswer || cached.TimeLimitMinutes != 5 {
		t.Fatalf("cached quiz differs: %+v", cached)
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	mr, client := newClient(t)
	loader := &countingLoader{catalog: memory.NewCatalog(nil, sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if err := repo.Invalidate(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected cached content removed")
	}
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, calls=%d", loader.calls)
	}
}

func TestQuizRepositoryIgnoresCorruptCache(t *testing.T) {
	mr, client := newClient(t)
	loader := &countingLoader{catalog: memory.NewCatalog(nil, sampleQuiz())}
	repo := NewQuizRepository(client, loader, time.Minute)

	if err := mr.Set("quiz:quiz-1:content", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 || len(quiz.Questions) != 1 {
		t.Fatalf("expected loader fallback, calls=%d quiz=%+v", loader.calls, quiz)
	}
}

func TestQuizRepositoryUnknownQuiz(t *testing.T) {
	_, client := newClient(t)
	repo := NewQuizRepository(client, &countingLoader{catalog: memory.NewCatalog(nil)}, time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "nope"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	catalog *memory.Catalog
	calls   int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.catalog.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:               "quiz-1",
		Title:            "Arithmetic",
		TimeLimitMinutes: 5,
		Questions: []domain.Question{
			{
				ID:            "q1",
				Prompt:        "What is 2 + 2?",
				Answers:       []string{"3", "4", "5", "22"},
				CorrectAnswer: 1,
			},
		},
	}
}
