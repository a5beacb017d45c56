package memory

import (
	"context"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestCatalogUpdateUpsertsQuestions(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog(nil, sampleQuiz())

	update := sampleQuiz()
	update.Title = "Arithmetic II"
	update.Questions = []domain.Question{
		{ID: "q1", Prompt: "What is 3 + 3?", Answers: []string{"6", "33", "9", "0"}, CorrectAnswer: 0},
		{ID: "q2", Prompt: "What is 2 * 5?", Answers: []string{"7", "25", "10", "52"}, CorrectAnswer: 2},
	}
	if err := catalog.UpdateQuiz(ctx, "teacher-1", update); err != nil {
		t.Fatalf("update: %v", err)
	}

	quiz, err := catalog.LoadQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if quiz.Title != "Arithmetic II" || len(quiz.Questions) != 2 {
		t.Fatalf("unexpected quiz after update: %+v", quiz)
	}
	if quiz.Questions[0].Prompt != "What is 3 + 3?" || quiz.Questions[0].CorrectAnswer != 0 {
		t.Fatalf("expected q1 updated in place, got %+v", quiz.Questions[0])
	}

	if err := catalog.UpdateQuiz(ctx, "someone-else", update); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound for foreign owner, got %v", err)
	}
}

func TestCatalogScoresByUser(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore()
	_ = users.CreateUser(ctx, domain.User{ID: "u1", Email: "ann@example.com"})
	catalog := NewCatalog(users, sampleQuiz())

	if _, err := catalog.CreateSubmission(ctx, domain.NewSubmission{QuizID: "quiz-1", UserID: "u1", Score: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := catalog.CreateSubmission(ctx, domain.NewSubmission{QuizID: "quiz-1", UserID: "u2", Score: 0}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := catalog.CreateSubmission(ctx, domain.NewSubmission{QuizID: "nope", UserID: "u1"}); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	scores, err := catalog.ScoresByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != 1 || scores[0].QuizTitle != "Arithmetic" || scores[0].Email != "ann@example.com" {
		t.Fatalf("unexpected scores: %+v", scores)
	}
}
