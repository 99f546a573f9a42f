package infrastructure

import (
	"context"
	"testing"
	"time"

	"metagraphOps/internal/shared/events"
)

func bareClient(hub *Hub, sessionID string, buf int) *Client {
	return &Client{
		hub:        hub,
		send:       make(chan []byte, buf),
		sessionID:  sessionID,
		subscribed: make(map[string]struct{}),
	}
}

func TestHubRoutesByTopicAndGlobal(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	topical := bareClient(hub, "a", 4)
	global := bareClient(hub, "b", 4)

	hub.mu.Lock()
	hub.registerLocked(topical)
	hub.registerLocked(global)
	hub.topics["transaction.failed"] = map[*Client]struct{}{topical: {}}
	topical.subscribed["transaction.failed"] = struct{}{}
	hub.global[global] = struct{}{}
	hub.mu.Unlock()

	hub.Broadcast(context.Background(), events.New(events.EntityTransaction, events.ActionFailed, "4", nil, time.Now()))
	hub.Broadcast(context.Background(), events.New(events.EntitySnapshot, events.ActionDecoded, "1", nil, time.Now()))

	if len(topical.send) != 1 {
		t.Fatalf("topic subscriber expected 1 message, got %d", len(topical.send))
	}
	if len(global.send) != 2 {
		t.Fatalf("global subscriber expected 2 messages, got %d", len(global.send))
	}
	if hub.Clients() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.Clients())
	}
}

func TestHandlerRegistryDispatchesByTopic(t *testing.T) {
	t.Parallel()

	registry := NewHandlerRegistry()
	handled := &countingHandler{topic: "snapshot.decoded"}
	registry.Register(handled)

	ctx := context.Background()
	_ = registry.Dispatch(ctx, events.New(events.EntitySnapshot, events.ActionDecoded, "1", nil, time.Now()))
	_ = registry.Dispatch(ctx, events.New(events.EntitySnapshot, events.ActionSkipped, "2", nil, time.Now()))

	if handled.calls != 1 {
		t.Fatalf("expected 1 dispatch, got %d", handled.calls)
	}
}

type countingHandler struct {
	topic string
	calls int
}

func (h *countingHandler) Topic() string { return h.topic }

func (h *countingHandler) Handle(context.Context, *events.Message) error {
	h.calls++
	return nil
}
