package broker

import (
	"context"

	"metagraphOps/internal/shared/events"
)

// Dispatcher routes a consumed event to whoever handles its topic.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *events.Message) error
}

func StartKafkaConsumers(
	ctx context.Context,
	dispatcher Dispatcher,
	brokers []string,
	groupID string,
	topics []string,
) {
	if len(brokers) == 0 {
		// kafka.NewReader panics on an empty broker list.
		return
	}
	for _, topic := range topics {
		go func(tp string) {
			consumer := NewKafkaConsumer(brokers, groupID, tp)
			_ = consumer.Consume(ctx, func(msg *events.Message) error {
				return dispatcher.Dispatch(ctx, msg)
			})
		}(topic)
	}
}
