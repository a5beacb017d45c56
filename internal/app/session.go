package app

import (
	"context"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// Session is one student's timed pass through a quiz. All state is guarded by
// mu; the answers array is checkpointed through persist before it changes.
type Session struct {
	quizID    string
	userID    string
	questions []domain.Question
	keys      checkpointKeys
	now       func() time.Time
	persist   func(ctx context.Context, answers []int) error

	mu          sync.Mutex
	phase       domain.Phase
	current     int
	answers     []int
	deadline    time.Time
	finished    bool
	score       *int
	reason      domain.CompletionReason
	submission  domain.SubmissionState
	updatedAt   time.Time
	timer       *Timer
	subscribers map[chan domain.AttemptSnapshot]struct{}
}

func newSession(quiz domain.Quiz, userID string, cp checkpoint, now func() time.Time) *Session {
	return &Session{
		quizID:      quiz.ID,
		userID:      userID,
		questions:   quiz.Questions,
		keys:        keysFor(userID, quiz.ID),
		now:         now,
		phase:       domain.PhaseInProgress,
		answers:     cp.answers,
		deadline:    cp.deadline,
		updatedAt:   now(),
		subscribers: make(map[chan domain.AttemptSnapshot]struct{}),
	}
}

func (s *Session) recordAnswer(ctx context.Context, question, answer int) (domain.AttemptSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseInProgress {
		return domain.AttemptSnapshot{}, domain.ErrAttemptClosed
	}
	if question < 0 || question >= len(s.answers) {
		return domain.AttemptSnapshot{}, domain.ErrInvalidQuestion
	}
	if answer < 0 || answer >= domain.AnswerCount {
		return domain.AttemptSnapshot{}, domain.ErrInvalidAnswer
	}
	return s.writeAnswerLocked(ctx, question, answer)
}

func (s *Session) clearAnswer(ctx context.Context, question int) (domain.AttemptSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseInProgress {
		return domain.AttemptSnapshot{}, domain.ErrAttemptClosed
	}
	if question < 0 || question >= len(s.answers) {
		return domain.AttemptSnapshot{}, domain.ErrInvalidQuestion
	}
	if s.answers[question] == domain.Unanswered {
		return s.snapshotLocked(), nil
	}
	return s.writeAnswerLocked(ctx, question, domain.Unanswered)
}

// writeAnswerLocked checkpoints first so memory never runs ahead of storage.
func (s *Session) writeAnswerLocked(ctx context.Context, question, answer int) (domain.AttemptSnapshot, error) {
	next := make([]int, len(s.answers))
	copy(next, s.answers)
	next[question] = answer
	if s.persist != nil {
		if err := s.persist(ctx, next); err != nil {
			return domain.AttemptSnapshot{}, err
		}
	}
	s.answers = next
	return s.broadcastLocked(), nil
}

func (s *Session) navigate(index int) (domain.AttemptSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseInProgress {
		return domain.AttemptSnapshot{}, domain.ErrAttemptClosed
	}
	if index < 0 || index >= len(s.answers) {
		return domain.AttemptSnapshot{}, domain.ErrInvalidQuestion
	}
	s.current = index
	return s.broadcastLocked(), nil
}

// Deadline is the absolute instant the attempt times out.
func (s *Session) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}

func (s *Session) requestFinish() (domain.AttemptSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseInProgress {
		return domain.AttemptSnapshot{}, domain.ErrAttemptClosed
	}
	if unansweredCount(s.answers) > 0 {
		return domain.AttemptSnapshot{}, domain.ErrUnansweredQuestions
	}
	s.phase = domain.PhaseAwaitingConfirmation
	return s.broadcastLocked(), nil
}

func (s *Session) cancelFinish() (domain.AttemptSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseAwaitingConfirmation {
		return domain.AttemptSnapshot{}, domain.ErrNotAwaitingConfirmation
	}
	s.phase = domain.PhaseInProgress
	return s.broadcastLocked(), nil
}

// beginCompletion is the double-submit guard: finished flips under the lock,
// so only the first caller gets a score back. A timer completion passes through
// TIMED_OUT regardless of the current phase or unanswered questions; a user
// completion requires a pending confirmation.
func (s *Session) beginCompletion(reason domain.CompletionReason) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return 0, domain.ErrAlreadySubmitted
	}
	switch reason {
	case domain.CompletedByTimer:
		s.phase = domain.PhaseTimedOut
		s.broadcastLocked()
	default:
		if s.phase != domain.PhaseAwaitingConfirmation {
			return 0, domain.ErrNotAwaitingConfirmation
		}
	}

	score := Score(s.answers, s.questions)
	s.finished = true
	s.score = &score
	s.reason = reason
	s.phase = domain.PhaseSubmitting
	s.submission = domain.SubmissionState{Status: domain.SubmissionPending}
	s.broadcastLocked()
	return score, nil
}

func (s *Session) markSubmitted() domain.AttemptSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = domain.PhaseSubmitted
	return s.broadcastLocked()
}

func (s *Session) setSubmission(state domain.SubmissionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submission = state
	s.broadcastLocked()
}

func (s *Session) startTimer(interval time.Duration, onExpire func()) {
	s.mu.Lock()
	s.timer = NewTimer(s.deadline, s.now, onExpire)
	timer := s.timer
	s.mu.Unlock()

	if interval > 0 {
		go timer.Run(interval)
	}
}

// checkExpiry must be called without holding mu: the expiry callback takes it.
func (s *Session) checkExpiry() {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer != nil {
		timer.Check()
	}
}

func (s *Session) stopTimer() {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
}

func (s *Session) terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase.Terminal()
}

// Snapshot returns a consistent copy of the attempt.
func (s *Session) Snapshot() domain.AttemptSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) subscribe() (<-chan domain.AttemptSnapshot, func()) {
	ch := make(chan domain.AttemptSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.AttemptSnapshot {
	s.updatedAt = s.now()
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: replace the oldest queued snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.AttemptSnapshot {
	answers := make([]int, len(s.answers))
	copy(answers, s.answers)

	remaining := s.deadline.Sub(s.now())
	if remaining < 0 || s.finished {
		remaining = 0
	}

	var score *int
	if s.score != nil {
		v := *s.score
		score = &v
	}

	return domain.AttemptSnapshot{
		QuizID:       s.quizID,
		UserID:       s.userID,
		Phase:        s.phase,
		CurrentIndex: s.current,
		Answers:      answers,
		Unanswered:   unansweredCount(s.answers),
		Deadline:     s.deadline.UnixMilli(),
		RemainingMS:  remaining.Milliseconds(),
		Finished:     s.finished,
		Score:        score,
		Reason:       s.reason,
		Submission:   s.submission,
		UpdatedAt:    s.updatedAt,
	}
}
