// Package kafka publishes archive events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/chatvault/pkg/eventstream"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "chatvault.archived"

// MessageWriter is the subset of *kafkago.Writer the publisher depends on.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers are the bootstrap broker addresses. Required.
	Brokers []string

	// Topic defaults to DefaultTopic.
	Topic string

	// BatchTimeout bounds how long messages wait to be batched. Defaults to 10ms
	// so single archives are not held back.
	BatchTimeout time.Duration
}

// Publisher writes events as JSON messages keyed by conversation id, so every
// archive of one conversation lands on the same partition in order.
type Publisher struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a publisher backed by a kafka-go Writer.
func NewPublisher(c Config, logger *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	batchTimeout := c.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka publisher initialized", "brokers", c.Brokers, "topic", topic)
	return NewPublisherWithWriter(w, topic, logger), nil
}

// NewPublisherWithWriter creates a publisher around an existing writer.
func NewPublisherWithWriter(w MessageWriter, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// PublishArchived writes event to the topic.
func (p *Publisher) PublishArchived(ctx context.Context, event *eventstream.ConversationArchivedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", event.EventID, err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Record.ID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing event %s to %s: %w", event.EventID, p.topic, err)
	}

	p.logger.Debug("published archive event",
		"topic", p.topic,
		"event_id", event.EventID,
		"conversation_id", event.Record.ID,
	)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
