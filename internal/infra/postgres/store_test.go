package postgres

import (
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestQuestionRowsKeepAuthoredOrder(t *testing.T) {
	quiz := domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "b", Prompt: "second id, first position", Answers: []string{"1", "2", "3", "4"}, CorrectAnswer: 2},
			{ID: "a", Prompt: "first id, second position", Answers: []string{"1", "2", "3", "4"}, CorrectAnswer: 0},
		},
	}
	rows := questionRowsFrom(quiz)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != "b" || rows[0].Position != 0 || rows[1].Position != 1 {
		t.Fatalf("unexpected positions %+v", rows)
	}
	if rows[0].QuizID != "quiz-1" || rows[0].CorrectAnswer != 2 {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}

func TestQuizRowSummary(t *testing.T) {
	created := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	row := quizRowFrom(domain.Quiz{ID: "q", UserID: "t1", Title: "T", Author: "A", TimeLimitMinutes: 7, CreatedAt: created})
	summary := row.summary()
	if summary.TimeLimitMinutes != 7 || summary.UserID != "t1" || !summary.CreatedAt.Equal(created) {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
