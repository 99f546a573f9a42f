package port

import (
	"context"
	"errors"

	"metagraphOps/internal/shared/events"
)

var (
	ErrInvalidEnvelope  = errors.New("invalid data update")
	ErrMissingProofs    = errors.New("data update carries no proofs")
	ErrInvalidProof     = errors.New("proof does not verify")
	ErrUnknownChannel   = errors.New("unknown sales channel")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Broadcaster pushes events to connected feed subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *events.Message)
}

// TopicHandler handles events relayed from the event stream for one topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *events.Message) error
}
