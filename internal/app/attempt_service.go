package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// AttemptService runs timed quiz attempts: it restores or creates checkpoints,
// applies answer mutations, and completes an attempt exactly once, either on
// confirmation or when the deadline passes.
type AttemptService struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	checkpoints CheckpointStore
	gateway     SubmissionGateway
	notifier    SubmissionNotifier
	logger      *slog.Logger
	now         func() time.Time
	tick        time.Duration
	defaultTTL  time.Duration
	retention   time.Duration

	starts   singleflight.Group
	inflight sync.WaitGroup
}

// AttemptOption customizes an AttemptService.
type AttemptOption func(*AttemptService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) AttemptOption {
	return func(s *AttemptService) { s.now = now }
}

// WithTickInterval sets how often timers poll their deadline. Zero disables
// background polling; expiry is then only detected on reads and mutations.
func WithTickInterval(d time.Duration) AttemptOption {
	return func(s *AttemptService) { s.tick = d }
}

// WithCheckpointGrace sets how long checkpoints outlive the quiz time limit.
func WithCheckpointGrace(d time.Duration) AttemptOption {
	return func(s *AttemptService) { s.defaultTTL = d }
}

// WithRetention sets how long a finished attempt stays readable after its
// submission settles. Zero or less evicts it at once.
func WithRetention(d time.Duration) AttemptOption {
	return func(s *AttemptService) { s.retention = d }
}

func WithNotifier(n SubmissionNotifier) AttemptOption {
	return func(s *AttemptService) { s.notifier = n }
}

func WithLogger(l *slog.Logger) AttemptOption {
	return func(s *AttemptService) { s.logger = l }
}

func NewAttemptService(sessions SessionRepository, quizzes QuizRepository, checkpoints CheckpointStore, gateway SubmissionGateway, opts ...AttemptOption) *AttemptService {
	s := &AttemptService{
		sessions:    sessions,
		quizzes:     quizzes,
		checkpoints: checkpoints,
		gateway:     gateway,
		logger:      slog.Default(),
		now:         time.Now,
		tick:        time.Second,
		defaultTTL:  24 * time.Hour,
		retention:   5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionKey(userID, quizID string) string {
	return userID + ":" + quizID
}

// Start opens the caller's attempt at a quiz. An active attempt is resumed; a
// checkpointed one is restored verbatim; otherwise a new deadline is set.
func (s *AttemptService) Start(ctx context.Context, actor Actor, quizID string) (domain.AttemptSnapshot, error) {
	key := sessionKey(actor.User.ID, quizID)

	result, err, _ := s.starts.Do(key, func() (interface{}, error) {
		if session, ok := s.sessions.Get(key); ok && !session.terminal() {
			return session, nil
		}

		quiz, err := s.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("load quiz %s: %w", quizID, err)
		}
		if len(quiz.Questions) == 0 {
			return nil, fmt.Errorf("%w: quiz %s has no questions", domain.ErrInvalidQuiz, quizID)
		}

		keys := keysFor(actor.User.ID, quizID)
		cp, restored, err := s.restoreOrCreate(ctx, keys, quiz)
		if err != nil {
			return nil, err
		}

		session := newSession(quiz, actor.User.ID, cp, s.now)
		ttl := s.checkpointTTL(quiz)
		session.persist = func(ctx context.Context, answers []int) error {
			return s.saveAnswers(ctx, keys.answers, answers, ttl)
		}
		s.sessions.Put(key, session)
		session.startTimer(s.tick, func() { s.expire(session) })

		s.logger.Info("attempt started",
			"quiz_id", quizID,
			"user_id", actor.User.ID,
			"restored", restored,
			"deadline", cp.deadline.UnixMilli(),
		)
		return session, nil
	})
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}

	session := result.(*Session)
	session.checkExpiry()
	return session.Snapshot(), nil
}

// Get returns the caller's attempt, completing it first if the deadline passed.
func (s *AttemptService) Get(_ context.Context, actor Actor, quizID string) (domain.AttemptSnapshot, error) {
	session, err := s.active(actor, quizID)
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// RecordAnswer selects answerIndex for questionIndex and checkpoints the answers.
func (s *AttemptService) RecordAnswer(ctx context.Context, actor Actor, quizID string, questionIndex, answerIndex int) (domain.AttemptSnapshot, error) {
	session, err := s.active(actor, quizID)
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}
	return session.recordAnswer(ctx, questionIndex, answerIndex)
}

// ClearAnswer resets a question to unanswered; clearing an empty slot is a no-op.
func (s *AttemptService) ClearAnswer(ctx context.Context, actor Actor, quizID string, questionIndex int) (domain.AttemptSnapshot, error) {
	session, err := s.active(actor, quizID)
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}
	return session.clearAnswer(ctx, questionIndex)
}

func (s *AttemptService) Navigate(_ context.Context, actor Actor, quizID string, index int) (domain.AttemptSnapshot, error) {
	session, err := s.active(actor, quizID)
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}
	return session.navigate(index)
}

// RequestFinish asks for confirmation; it is refused while questions are unanswered.
func (s *AttemptService) RequestFinish(_ context.Context, actor Actor, quizID string) (domain.AttemptSnapshot, error) {
	session, err := s.active(actor, quizID)
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}
	return session.requestFinish()
}

func (s *AttemptService) CancelFinish(_ context.Context, actor Actor, quizID string) (domain.AttemptSnapshot, error) {
	session, err := s.active(actor, quizID)
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}
	return session.cancelFinish()
}

// ConfirmFinish scores and submits the attempt. The result is returned without
// waiting for the gateway; its outcome shows up in later snapshots.
func (s *AttemptService) ConfirmFinish(ctx context.Context, actor Actor, quizID string) (domain.AttemptResult, error) {
	session, err := s.active(actor, quizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	return s.complete(ctx, session, domain.CompletedByUser)
}

// Subscribe streams snapshots of the caller's attempt. The caller must invoke
// the returned cancel function to avoid leaks.
func (s *AttemptService) Subscribe(_ context.Context, actor Actor, quizID string) (<-chan domain.AttemptSnapshot, func(), error) {
	session, ok := s.sessions.Get(sessionKey(actor.User.ID, quizID))
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Wait blocks until background submissions have finished.
func (s *AttemptService) Wait() {
	s.inflight.Wait()
}

func (s *AttemptService) active(actor Actor, quizID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionKey(actor.User.ID, quizID))
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	session.checkExpiry()
	return session, nil
}

func (s *AttemptService) expire(session *Session) {
	if _, err := s.complete(context.Background(), session, domain.CompletedByTimer); err != nil && !errors.Is(err, domain.ErrAlreadySubmitted) {
		s.logger.Error("timed out attempt not submitted", "quiz_id", session.quizID, "user_id", session.userID, "error", err)
	}
}

// complete is the single completion path for confirmation and timeout.
func (s *AttemptService) complete(ctx context.Context, session *Session, reason domain.CompletionReason) (domain.AttemptResult, error) {
	score, err := session.beginCompletion(reason)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	session.stopTimer()

	s.dispatch(ctx, session, domain.NewSubmission{
		QuizID: session.quizID,
		UserID: session.userID,
		Score:  score,
	})

	if err := s.checkpoints.Delete(ctx, session.keys.all()...); err != nil {
		s.logger.Warn("clear attempt checkpoints", "quiz_id", session.quizID, "user_id", session.userID, "error", err)
	}
	session.markSubmitted()

	s.logger.Info("attempt completed",
		"quiz_id", session.quizID,
		"user_id", session.userID,
		"score", score,
		"reason", reason,
	)
	return domain.AttemptResult{
		QuizID:    session.quizID,
		Score:     score,
		Questions: len(session.questions),
		Reason:    reason,
	}, nil
}

// dispatch sends the submission in the background. There is no retry: the
// gateway has no idempotency key, so a failed attempt is reported, not resent.
func (s *AttemptService) dispatch(ctx context.Context, session *Session, submission domain.NewSubmission) {
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer s.evict(session)

		record, err := s.gateway.CreateSubmission(ctx, submission)
		if err != nil {
			s.logger.Error("submission failed",
				"quiz_id", submission.QuizID,
				"user_id", submission.UserID,
				"score", submission.Score,
				"error", err,
			)
			session.setSubmission(domain.SubmissionState{Status: domain.SubmissionFailed, Error: err.Error()})
			return
		}
		session.setSubmission(domain.SubmissionState{Status: domain.SubmissionRecorded, RecordID: record.ID})

		if s.notifier != nil {
			if err := s.notifier.NotifySubmitted(ctx, record); err != nil {
				s.logger.Warn("submission notification failed", "submission_id", record.ID, "error", err)
			}
		}
	}()
}

// evict drops a settled attempt from the registry after the retention window.
func (s *AttemptService) evict(session *Session) {
	key := sessionKey(session.userID, session.quizID)
	if s.retention <= 0 {
		s.sessions.Delete(key, session)
		return
	}
	time.AfterFunc(s.retention, func() { s.sessions.Delete(key, session) })
}
