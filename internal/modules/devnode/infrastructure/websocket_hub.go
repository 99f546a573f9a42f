package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"metagraphOps/internal/shared/events"
)

// Hub fans events out to websocket subscribers, either per topic or to everyone.
type Hub struct {
	topics  map[string]map[*Client]struct{}
	clients map[string]*Client
	global  map[*Client]struct{}
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		clients: make(map[string]*Client),
		global:  make(map[*Client]struct{}),
	}
}

func (h *Hub) registerLocked(c *Client) {
	if existing, ok := h.clients[c.sessionID]; ok && existing != c {
		h.detachLocked(existing)
	}
	h.clients[c.sessionID] = c
}

func (h *Hub) detachClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c)
}

func (h *Hub) detachLocked(c *Client) {
	if c == nil {
		return
	}
	for topic := range c.subscribed {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	if h.clients[c.sessionID] == c {
		delete(h.clients, c.sessionID)
	}
	delete(h.global, c)
	c.close()
	slog.Info("ws client detached", slog.String("subject", c.subject), slog.String("sessionId", c.sessionID))
}

// Attach subscribes c to topics, or to every topic when none are given.
func (h *Hub) Attach(c *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registerLocked(c)

	subscribed := 0
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if h.topics[topic] == nil {
			h.topics[topic] = make(map[*Client]struct{})
		}
		h.topics[topic][c] = struct{}{}
		c.subscribed[topic] = struct{}{}
		subscribed++
	}
	if subscribed == 0 {
		h.global[c] = struct{}{}
	}
	slog.Info("ws client attached", slog.String("subject", c.subject), slog.String("sessionId", c.sessionID), slog.Any("topics", topics))
}

// Clients returns the number of attached subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(_ context.Context, msg *events.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("broadcast marshal error", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	subs := h.topics[msg.Topic]
	clients := make([]*Client, 0, len(subs)+len(h.global))
	for c := range subs {
		clients = append(clients, c)
	}
	for c := range h.global {
		if _, dup := subs[c]; !dup {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			slog.Warn("websocket send buffer full", slog.String("sessionId", c.sessionID))
			go h.detachClient(c)
		}
	}
}

// Publish lets the hub sit behind events.Publisher next to the Kafka producer.
func (h *Hub) Publish(ctx context.Context, msg *events.Message) error {
	h.Broadcast(ctx, msg)
	return nil
}

var _ events.Publisher = (*Hub)(nil)
