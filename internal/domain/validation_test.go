package domain

import (
	"errors"
	"testing"
)

func validDraft() QuizDraft {
	return QuizDraft{
		Title:            "Go basics",
		Author:           "Ms. Pike",
		TimeLimitMinutes: 10,
		Questions: []QuestionDraft{
			{Prompt: "Zero value of int?", Answers: []string{"0", "1", "nil", "-1"}, CorrectAnswer: 0},
		},
	}
}

func TestQuizDraftValidate(t *testing.T) {
	if err := validDraft().Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}

	cases := map[string]func(d *QuizDraft){
		"no title":         func(d *QuizDraft) { d.Title = "" },
		"zero time":        func(d *QuizDraft) { d.TimeLimitMinutes = 0 },
		"no questions":     func(d *QuizDraft) { d.Questions = nil },
		"three answers":    func(d *QuizDraft) { d.Questions[0].Answers = []string{"a", "b", "c"} },
		"empty answer":     func(d *QuizDraft) { d.Questions[0].Answers[2] = "" },
		"correct too high": func(d *QuizDraft) { d.Questions[0].CorrectAnswer = 4 },
		"correct negative": func(d *QuizDraft) { d.Questions[0].CorrectAnswer = -1 },
	}
	for name, mutate := range cases {
		d := validDraft()
		mutate(&d)
		if err := d.Validate(); !errors.Is(err, ErrInvalidQuiz) {
			t.Fatalf("%s: expected ErrInvalidQuiz, got %v", name, err)
		}
	}
}

func TestRegistrationValidate(t *testing.T) {
	r := Registration{Email: "a@b.co", Name: "Ann", Role: RoleStudent, Password: "secret1"}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid registration, got %v", err)
	}
	r.Role = "admin"
	if err := r.Validate(); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser for unknown role, got %v", err)
	}
}

func TestPublicHidesCorrectAnswers(t *testing.T) {
	q := Quiz{ID: "q", Questions: []Question{{ID: "a", CorrectAnswer: 2}}}
	pub := q.Public()
	if pub.Questions[0].CorrectAnswer != Unanswered {
		t.Fatalf("expected hidden answer, got %d", pub.Questions[0].CorrectAnswer)
	}
	if q.Questions[0].CorrectAnswer != 2 {
		t.Fatalf("original quiz mutated")
	}
}
