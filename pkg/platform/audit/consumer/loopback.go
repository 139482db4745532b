package consumer

import (
	"context"

	"treasury/internal/platform/kafka"
	"treasury/pkg/platform/audit/outbox"
)

// Loopback is an outbox.Producer that hands relayed rows straight to a
// Handler. It replaces the broker round trip when no Kafka cluster is
// configured, so the projection still fills in.
type Loopback struct {
	handler *Handler
}

func NewLoopback(handler *Handler) *Loopback {
	return &Loopback{handler: handler}
}

func (l *Loopback) Publish(ctx context.Context, topic string, msgs ...outbox.Message) error {
	for i, m := range msgs {
		err := l.handler.Handle(ctx, &kafka.Message{
			Topic:  topic,
			Offset: int64(i),
			Key:    m.Key,
			Value:  m.Value,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
