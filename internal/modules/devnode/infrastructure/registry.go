package infrastructure

import (
	"context"

	"metagraphOps/internal/modules/devnode/application/port"
	"metagraphOps/internal/shared/events"
)

type HandlerRegistry struct {
	handlers map[string]port.TopicHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]port.TopicHandler)}
}

func (r *HandlerRegistry) Register(h port.TopicHandler) {
	r.handlers[h.Topic()] = h
}

// Dispatch routes msg to the handler for its topic; unknown topics are ignored.
func (r *HandlerRegistry) Dispatch(ctx context.Context, msg *events.Message) error {
	if handler, ok := r.handlers[msg.Topic]; ok {
		return handler.Handle(ctx, msg)
	}
	return nil
}
