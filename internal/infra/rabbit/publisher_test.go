package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.key = key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNotifierPublishesSubmission(t *testing.T) {
	ch := &fakeChannel{}
	n := newNotifier(ch, DefaultExchange)
	created := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

	err := n.NotifySubmitted(context.Background(), domain.SubmissionRecord{
		ID: "sub-1", QuizID: "quiz-1", UserID: "u1", Score: 3, CreatedAt: created,
	})
	require.NoError(t, err)
	require.Equal(t, "quiz.events", ch.exchange)
	require.Equal(t, "submission.created", ch.key)
	require.Len(t, ch.msgs, 1)
	require.Equal(t, "sub-1", ch.msgs[0].MessageId)
	require.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)

	var event SubmissionCreated
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &event))
	require.Equal(t, 3, event.Score)
	require.Equal(t, "quiz-1", event.QuizID)
	require.True(t, event.CreatedAt.Equal(created))

	require.NoError(t, n.Close())
	require.True(t, ch.closed)
}

func TestNotifierSurfacesPublishErrors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	n := newNotifier(ch, DefaultExchange)
	err := n.NotifySubmitted(context.Background(), domain.SubmissionRecord{ID: "sub-1"})
	require.Error(t, err)
}
