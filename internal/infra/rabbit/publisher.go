package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange             = "quiz.events"
	SubmissionCreatedRoutingKey = "submission.created"
)

// publisher is the part of *amqp.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// SubmissionCreated is the event body published for every recorded submission.
type SubmissionCreated struct {
	SubmissionID string    `json:"submission_id"`
	QuizID       string    `json:"quiz_id"`
	UserID       string    `json:"user_id"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}

// Notifier publishes submission events to a topic exchange.
type Notifier struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch publisher
}

// Dial connects to RabbitMQ and declares the events exchange.
func Dial(url, exchange string) (*Notifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Notifier{conn: conn, exchange: exchange, ch: ch}, nil
}

func newNotifier(ch publisher, exchange string) *Notifier {
	return &Notifier{exchange: exchange, ch: ch}
}

func (n *Notifier) NotifySubmitted(ctx context.Context, record domain.SubmissionRecord) error {
	body, err := json.Marshal(SubmissionCreated{
		SubmissionID: record.ID,
		QuizID:       record.QuizID,
		UserID:       record.UserID,
		Score:        record.Score,
		CreatedAt:    record.CreatedAt,
	})
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.PublishWithContext(ctx, n.exchange, SubmissionCreatedRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    record.ID,
		Timestamp:    record.CreatedAt,
		Body:         body,
	})
}

func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
