package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when no active attempt exists for a user and quiz.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptClosed is returned when an attempt no longer accepts answers or navigation.
	ErrAttemptClosed = errors.New("attempt is not in progress")
	// ErrUnansweredQuestions blocks a voluntary finish while questions remain unanswered.
	ErrUnansweredQuestions = errors.New("all questions must be answered before finishing")
	// ErrNotAwaitingConfirmation is returned when confirm/cancel is sent without a finish request.
	ErrNotAwaitingConfirmation = errors.New("attempt is not awaiting confirmation")
	// ErrAlreadySubmitted guards against a second submission of the same attempt.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrInvalidQuestion indicates a question index outside the quiz.
	ErrInvalidQuestion = errors.New("question index out of range")
	// ErrInvalidAnswer indicates an answer index outside the question's options.
	ErrInvalidAnswer = errors.New("answer index out of range")
	// ErrInvalidQuiz wraps validation failures of quiz drafts.
	ErrInvalidQuiz = errors.New("invalid quiz")

	ErrUserNotFound   = errors.New("user not found")
	ErrUserExists     = errors.New("user already exists")
	ErrInvalidUser    = errors.New("invalid user")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrUnauthorized   = errors.New("not authenticated")
	ErrForbidden      = errors.New("forbidden")
)
