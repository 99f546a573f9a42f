package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"metagraphOps/internal/shared/events"
)

// KafkaPublisher writes events to a single Kafka topic, keyed by resource id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           50 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg *events.Message) error {
	record, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.Topic, err)
	}
	slog.Debug("kafka message produced", slog.String("topic", p.writer.Topic), slog.String("event", msg.Topic), slog.String("resourceId", msg.ResourceID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewPublisher returns a Kafka publisher, or a no-op one when no brokers are configured.
// The closer is always safe to call.
func NewPublisher(brokers []string, topic string) (events.Publisher, io.Closer) {
	if len(brokers) == 0 {
		slog.Debug("kafka publisher disabled: no brokers configured")
		return events.NopPublisher{}, nopCloser{}
	}
	slog.Info("kafka publisher enabled", slog.Any("brokers", brokers), slog.String("topic", topic))
	publisher := NewKafkaPublisher(brokers, topic)
	return publisher, publisher
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func encodeMessage(msg *events.Message) (kafka.Message, error) {
	if msg == nil {
		return kafka.Message{}, fmt.Errorf("kafka encode: nil message")
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka encode %s: %w", msg.Topic, err)
	}
	record := kafka.Message{Value: value, Time: msg.Timestamp}
	if msg.ResourceID != "" {
		record.Key = []byte(msg.ResourceID)
	}
	record.Headers = []kafka.Header{{Key: "event", Value: []byte(msg.Topic)}}
	return record, nil
}

var _ events.Publisher = (*KafkaPublisher)(nil)
