package usecase

import (
	"context"

	"metagraphOps/internal/modules/devnode/application/port"
	"metagraphOps/internal/shared/events"
)

// RelayTopics are the event-stream topics produced by the CLIs that devnode forwards to its feed.
// Devnode's own topics are left out; they already reach the feed directly.
func RelayTopics() []string {
	return []string{
		events.Topic(events.EntitySnapshot, events.ActionDecoded),
		events.Topic(events.EntitySnapshot, events.ActionSkipped),
		events.Topic(events.EntityTransaction, events.ActionSubmitted),
		events.Topic(events.EntityTransaction, events.ActionFailed),
	}
}

// RelayHandler forwards consumed events for one topic to the websocket feed.
type RelayHandler struct {
	topic       string
	broadcaster port.Broadcaster
}

func NewRelayHandler(topic string, broadcaster port.Broadcaster) *RelayHandler {
	return &RelayHandler{topic: topic, broadcaster: broadcaster}
}

func (h *RelayHandler) Topic() string { return h.topic }

func (h *RelayHandler) Handle(ctx context.Context, msg *events.Message) error {
	msg.WithMetadata("source", "kafka")
	h.broadcaster.Broadcast(ctx, msg)
	return nil
}
