// Package outbox relays committed audit outbox rows to Kafka.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditpg "treasury/pkg/platform/audit/store/postgres"
)

// Store is the outbox surface the relay needs.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	FetchPending(ctx context.Context, limit int) ([]auditpg.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Message is one record handed to the producer.
type Message struct {
	Key   []byte
	Value []byte
}

// Producer publishes a batch synchronously; a nil error means every message
// was acknowledged.
type Producer interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

// Relay polls the outbox and publishes pending rows in creation order.
// Delivery is at-least-once: rows are marked only after the broker acks,
// so a crash between publish and commit republishes the batch.
type Relay struct {
	store     Store
	producer  Producer
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(store Store, producer Producer, topic string, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		producer:  producer,
		topic:     topic,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns how many rows were relayed.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var relayed int
	err := r.store.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := r.store.FetchPending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		msgs := make([]Message, len(entries))
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			msgs[i] = Message{Key: []byte(e.AggregateID), Value: e.Payload}
			ids[i] = e.ID
		}
		if err := r.producer.Publish(ctx, r.topic, msgs...); err != nil {
			return err
		}
		if err := r.store.MarkPublished(ctx, ids, time.Now()); err != nil {
			return err
		}
		relayed = len(entries)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return relayed, nil
}
