package domain

import (
	"fmt"
	"strings"

	"gopkg.in/go-playground/validator.v9"
)

var validate = validator.New()

// Validate checks the draft: non-empty title/author, a positive time limit and
// at least one question with exactly four answers and a correct index in range.
func (d QuizDraft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuiz, describe(err))
	}
	return nil
}

// Validate checks the sign-up payload.
func (r Registration) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUser, describe(err))
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
