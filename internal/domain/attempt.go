package domain

import "time"

// Phase is the completion state of a quiz attempt.
type Phase string

const (
	PhaseInProgress           Phase = "IN_PROGRESS"
	PhaseAwaitingConfirmation Phase = "AWAITING_CONFIRMATION"
	PhaseTimedOut             Phase = "TIMED_OUT"
	PhaseSubmitting           Phase = "SUBMITTING"
	PhaseSubmitted            Phase = "SUBMITTED"
)

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseSubmitted
}

// SubmissionStatus tracks the background gateway call of a finished attempt.
type SubmissionStatus string

const (
	SubmissionNone     SubmissionStatus = ""
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionRecorded SubmissionStatus = "recorded"
	SubmissionFailed   SubmissionStatus = "failed"
)

// SubmissionState is the outcome of the gateway call, surfaced to the student.
type SubmissionState struct {
	Status   SubmissionStatus `json:"status,omitempty"`
	RecordID string           `json:"recordId,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// CompletionReason tells whether an attempt was finished by the student or the timer.
type CompletionReason string

const (
	CompletedByUser  CompletionReason = "finished"
	CompletedByTimer CompletionReason = "timed_out"
)

// AttemptSnapshot is a consistent read of an attempt's state.
type AttemptSnapshot struct {
	QuizID       string           `json:"quizId"`
	UserID       string           `json:"userId"`
	Phase        Phase            `json:"phase"`
	CurrentIndex int              `json:"currentIndex"`
	Answers      []int            `json:"answers"`
	Unanswered   int              `json:"unanswered"`
	Deadline     int64            `json:"deadline"`
	RemainingMS  int64            `json:"remainingMs"`
	Finished     bool             `json:"finished"`
	Score        *int             `json:"score,omitempty"`
	Reason       CompletionReason `json:"reason,omitempty"`
	Submission   SubmissionState  `json:"submission"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// AttemptResult is returned as soon as an attempt is scored, before the gateway acknowledges.
type AttemptResult struct {
	QuizID    string           `json:"quizId"`
	Score     int              `json:"score"`
	Questions int              `json:"questions"`
	Reason    CompletionReason `json:"reason"`
}
