// Package compliance provides a fail-closed audit publisher for ledger events.
//
// Events are written synchronously through the audit store using the
// caller's context, so a transaction carried there covers the write. If the
// write fails, an error is returned and the calling operation MUST fail.
//
// Use for: expenditure lifecycle, payouts, deposits, pot moves, claims.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "treasury/pkg/platform/audit"
)

var (
	ErrMissingAction  = errors.New("compliance event requires Action")
	ErrMissingSubject = errors.New("compliance event requires Subject")
)

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a compliance publisher. With the Postgres backend the store is
// the outbox, which gives delivery once the surrounding transaction commits.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enriches and synchronously persists a compliance event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return ErrMissingAction
	}
	if event.Subject == "" {
		return ErrMissingSubject
	}
	event = audit.Enrich(ctx, event)

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted()
	}
	return nil
}

// Close is a no-op for the synchronous compliance publisher.
func (p *Publisher) Close() error {
	return nil
}
