package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"quiz-attempt-service/internal/domain"
)

// checkpointKeys are namespaced per user and quiz so a stale attempt of one
// quiz is never resumed for another.
type checkpointKeys struct {
	deadline string
	answers  string
}

func keysFor(userID, quizID string) checkpointKeys {
	prefix := "attempt:" + userID + ":" + quizID
	return checkpointKeys{
		deadline: prefix + ":deadline",
		answers:  prefix + ":answers",
	}
}

func (k checkpointKeys) all() []string {
	return []string{k.deadline, k.answers}
}

type checkpoint struct {
	deadline time.Time
	answers  []int
}

func encodeDeadline(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func encodeAnswers(answers []int) (string, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func freshAnswers(n int) []int {
	answers := make([]int, n)
	for i := range answers {
		answers[i] = domain.Unanswered
	}
	return answers
}

// restoreOrCreate reads the attempt back from the store, or writes a fresh
// deadline and empty answers. The bool is true when a deadline was restored.
func (s *AttemptService) restoreOrCreate(ctx context.Context, keys checkpointKeys, quiz domain.Quiz) (checkpoint, bool, error) {
	n := len(quiz.Questions)

	rawDeadline, ok, err := s.checkpoints.Get(ctx, keys.deadline)
	if err != nil {
		return checkpoint{}, false, fmt.Errorf("read deadline checkpoint: %w", err)
	}
	if ok {
		ms, perr := strconv.ParseInt(rawDeadline, 10, 64)
		if perr == nil {
			cp := checkpoint{deadline: time.UnixMilli(ms)}
			cp.answers, err = s.restoreAnswers(ctx, keys, n, s.checkpointTTL(quiz))
			if err != nil {
				return checkpoint{}, false, err
			}
			return cp, true, nil
		}
		s.logger.Warn("discarding corrupt deadline checkpoint", "key", keys.deadline, "value", rawDeadline)
	}

	cp := checkpoint{
		deadline: s.now().Add(quiz.TimeLimit()),
		answers:  freshAnswers(n),
	}
	if err := s.checkpoints.Set(ctx, keys.deadline, encodeDeadline(cp.deadline), s.checkpointTTL(quiz)); err != nil {
		return checkpoint{}, false, fmt.Errorf("write deadline checkpoint: %w", err)
	}
	if err := s.saveAnswers(ctx, keys.answers, cp.answers, s.checkpointTTL(quiz)); err != nil {
		return checkpoint{}, false, err
	}
	return cp, false, nil
}

// restoreAnswers reads the answers verbatim. A missing or corrupt array is
// replaced by a fresh one; the deadline is kept so time is never extended.
func (s *AttemptService) restoreAnswers(ctx context.Context, keys checkpointKeys, n int, ttl time.Duration) ([]int, error) {
	raw, ok, err := s.checkpoints.Get(ctx, keys.answers)
	if err != nil {
		return nil, fmt.Errorf("read answers checkpoint: %w", err)
	}
	if ok {
		var answers []int
		if err := json.Unmarshal([]byte(raw), &answers); err == nil && validAnswers(answers, n) {
			return answers, nil
		}
		s.logger.Warn("discarding corrupt answers checkpoint", "key", keys.answers)
	}
	answers := freshAnswers(n)
	if err := s.saveAnswers(ctx, keys.answers, answers, ttl); err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *AttemptService) saveAnswers(ctx context.Context, key string, answers []int, ttl time.Duration) error {
	raw, err := encodeAnswers(answers)
	if err != nil {
		return err
	}
	if err := s.checkpoints.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("write answers checkpoint: %w", err)
	}
	return nil
}

func (s *AttemptService) checkpointTTL(quiz domain.Quiz) time.Duration {
	if s.defaultTTL <= 0 {
		return 0
	}
	return quiz.TimeLimit() + s.defaultTTL
}

func validAnswers(answers []int, n int) bool {
	if len(answers) != n {
		return false
	}
	for _, a := range answers {
		if a != domain.Unanswered && (a < 0 || a >= domain.AnswerCount) {
			return false
		}
	}
	return true
}
