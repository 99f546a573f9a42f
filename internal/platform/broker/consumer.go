package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"metagraphOps/internal/shared/events"
)

type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaConsumer(brokers []string, groupID string, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}),
	}
}

// Consume reads until ctx is done, handing every record to handler as an events.Message.
func (c *KafkaConsumer) Consume(ctx context.Context, handler func(*events.Message) error) error {
	defer c.reader.Close()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("kafka read error", slog.Any("error", err))
			continue
		}
		msg := decodeMessage(m)
		slog.Debug("kafka message consumed",
			slog.String("topic", m.Topic),
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
			slog.String("event", msg.Topic),
			slog.String("resourceId", msg.ResourceID),
		)
		if err := handler(msg); err != nil {
			slog.Warn("kafka handler error", slog.String("event", msg.Topic), slog.Any("error", err))
		}
	}
}

// decodeMessage turns a record into an event. Records that are not event JSON keep their raw
// value as data and borrow entity/action from the event header or the Kafka topic.
func decodeMessage(m kafka.Message) *events.Message {
	var msg events.Message
	if err := json.Unmarshal(m.Value, &msg); err != nil || msg.Entity == "" {
		entity, action := inferEntityAction(firstNonEmpty(header(m, "event"), m.Topic))
		return &events.Message{
			Topic:      events.Topic(entity, action),
			Entity:     entity,
			Action:     action,
			ResourceID: string(m.Key),
			Data:       string(m.Value),
			Timestamp:  timestampOrNow(m.Time),
		}
	}

	msg.Action = firstNonEmpty(msg.Action, "unknown")
	if msg.Topic == "" {
		msg.Topic = events.Topic(msg.Entity, msg.Action)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = timestampOrNow(m.Time)
	}
	return &msg
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// inferEntityAction splits "entity.action" at the first dot; "update.accepted" style actions stay intact.
func inferEntityAction(topic string) (string, string) {
	entity, action, found := strings.Cut(strings.TrimSpace(topic), ".")
	entity = strings.TrimSpace(entity)
	action = strings.TrimSpace(action)
	if !found || action == "" {
		action = "unknown"
	}
	return entity, action
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
