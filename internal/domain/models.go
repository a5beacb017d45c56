package domain

import "time"

// AnswerCount is the fixed number of options on every question.
const AnswerCount = 4

// Unanswered marks an answer slot the student has not filled.
const Unanswered = -1

// Question models an MCQ question with exactly one correct answer.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"question"`
	Answers       []string `json:"answers"`
	CorrectAnswer int      `json:"correct_answer"`
}

// Quiz is an authored, timed collection of questions.
type Quiz struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Title            string     `json:"title"`
	Author           string     `json:"author"`
	Description      string     `json:"description"`
	TimeLimitMinutes int        `json:"time"`
	Questions        []Question `json:"questions"`
	CreatedAt        time.Time  `json:"created_at"`
}

// TimeLimit converts the authored limit to a duration.
func (q Quiz) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitMinutes) * time.Minute
}

// Public returns a copy safe to hand to students: correct answers are blanked.
func (q Quiz) Public() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectAnswer = Unanswered
		out.Questions[i] = question
	}
	return out
}

// QuizSummary is the list view of a quiz, without questions.
type QuizSummary struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	Description      string    `json:"description"`
	TimeLimitMinutes int       `json:"time"`
	CreatedAt        time.Time `json:"created_at"`
}

// QuestionDraft is an authored question; ID is empty for new questions.
type QuestionDraft struct {
	ID            string   `json:"id,omitempty"`
	Prompt        string   `json:"question" validate:"required"`
	Answers       []string `json:"answers" validate:"len=4,dive,required"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0,max=3"`
}

// QuizDraft is the payload for creating or updating a quiz.
type QuizDraft struct {
	Title            string          `json:"title" validate:"required,max=200"`
	Author           string          `json:"author" validate:"required"`
	Description      string          `json:"description"`
	TimeLimitMinutes int             `json:"time" validate:"min=1,max=1440"`
	Questions        []QuestionDraft `json:"questions" validate:"required,min=1,dive"`
}

// NewSubmission is the request sent through the submission gateway.
type NewSubmission struct {
	QuizID string
	UserID string
	Score  int
}

// SubmissionRecord is a durably recorded attempt result.
type SubmissionRecord struct {
	ID        string    `json:"id"`
	QuizID    string    `json:"quiz_id"`
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreEntry joins a submission with the quiz it belongs to for the score page.
type ScoreEntry struct {
	SubmissionRecord
	QuizTitle        string `json:"quiz_title"`
	QuizAuthor       string `json:"quiz_author"`
	TimeLimitMinutes int    `json:"time"`
	Email            string `json:"email"`
}

// Role distinguishes quiz authors from quiz takers.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// User is an authenticated account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Registration is the sign-up payload.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=teacher student"`
	Password string `json:"password" validate:"required,min=6"`
}
