package events

import (
	"context"
	"errors"
	"time"
)

// Message is the envelope shared by the Kafka publisher and the devnode websocket feed.
type Message struct {
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Publisher fans a message out to whatever sink backs it.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// NopPublisher drops every message. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Message) error { return nil }

// New builds a message for entity/action stamped with the supplied time.
func New(entity, action, resourceID string, data any, at time.Time) *Message {
	return &Message{
		Topic:      Topic(entity, action),
		Entity:     entity,
		Action:     action,
		ResourceID: resourceID,
		Data:       data,
		Timestamp:  at.UTC(),
	}
}

// WithMetadata sets key on the message metadata, allocating the map on first use.
func (m *Message) WithMetadata(key, value string) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
	return m
}

// Fanout publishes to every publisher in order and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, msg *Message) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
