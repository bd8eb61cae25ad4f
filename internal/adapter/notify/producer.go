package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const producerName = "fairmarket"

// Publisher emits fire-and-forget notification events. Publishing must
// never block or fail a core transition.
type Publisher interface {
	Publish(ctx context.Context, eventType string, orderID int64, payload any)
}

// writer is the subset of kafka.Writer used by the producer.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes events to a Kafka topic asynchronously.
type Producer struct {
	w      writer
	logger *slog.Logger
}

// NewProducer builds a Kafka-backed producer. The async writer makes
// WriteMessages enqueue-and-return; write errors surface in the
// completion callback and are only logged.
func NewProducer(brokers []string, topic string, logger *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	w.Completion = func(messages []kafka.Message, err error) {
		if err != nil {
			logger.Error("notification delivery failed", slog.String("error", err.Error()))
		}
	}
	return &Producer{w: w, logger: logger}
}

// Publish enqueues one event. Marshalling failures are logged and
// dropped; the caller's transition has already committed.
func (p *Producer) Publish(ctx context.Context, eventType string, orderID int64, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal event payload", slog.String("event", eventType), slog.String("error", err.Error()))
		return
	}

	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now(),
		Producer:   producerName,
		Payload:    body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("marshal event envelope", slog.String("event", eventType), slog.String("error", err.Error()))
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(orderID, 10)),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publish event", slog.String("event", eventType), slog.String("error", err.Error()))
	}
}

// Close flushes pending messages and releases the writer.
func (p *Producer) Close() error {
	return p.w.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, int64, any) {}
