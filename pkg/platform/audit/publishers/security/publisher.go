// Package security provides a fail-open audit publisher for access-control
// and operator events.
//
// Emit never blocks and never returns an error: events go into a bounded
// ring buffer and a background worker writes them to the audit store. When
// the store falls behind, the oldest buffered events are dropped and
// counted.
//
// Use for: authorization_denied, role_granted, role_revoked, skill_added,
// skill_deprecated.
package security

import (
	"context"
	"log/slog"
	"sync"

	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/audit/worker"
)

// Publisher buffers security events and persists them in the background.
type Publisher struct {
	buffer  *RingBuffer
	worker  *worker.Worker
	logger  *slog.Logger
	metrics *Metrics

	capacity  int
	batchSize int

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithBufferSize bounds how many events wait for persistence.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		p.capacity = n
	}
}

// WithBatchSize sets how many events the worker takes per dequeue.
func WithBatchSize(n int) Option {
	return func(p *Publisher) {
		p.batchSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates the publisher and starts its background worker.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		logger: slog.Default(),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.buffer = NewRingBuffer(p.capacity)

	workerOpts := []worker.Option{worker.WithBatchSize(p.batchSize)}
	if p.metrics != nil {
		workerOpts = append(workerOpts, worker.WithFailureHook(p.metrics.IncPersistFailures))
	}
	p.worker = worker.NewWorker(store, p.buffer, p.logger, workerOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go func() {
		defer close(p.done)
		_ = p.worker.Run(ctx, p.wake)
	}()
	return p
}

// Emit enriches the event with request metadata and queues it. Request
// values are captured now since the write happens after the request ends.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) {
	event = audit.Enrich(ctx, event)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.WarnContext(ctx, "security audit publisher closed, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
		if p.metrics != nil {
			p.metrics.IncDropped()
		}
		return
	}

	if p.buffer.Enqueue(event) {
		p.logger.WarnContext(ctx, "security audit buffer full, dropped oldest event",
			"action", event.Action,
			"dropped_total", p.buffer.Dropped(),
		)
		if p.metrics != nil {
			p.metrics.IncDropped()
		}
	}
	if p.metrics != nil {
		p.metrics.IncEmitted()
		p.metrics.SetBuffered(p.buffer.Len())
	}

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Flush writes every buffered event before returning.
func (p *Publisher) Flush(ctx context.Context) {
	p.worker.Drain(ctx)
	if p.metrics != nil {
		p.metrics.SetBuffered(p.buffer.Len())
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.buffer.Dropped()
}

// Close stops the background worker and flushes what is left in the buffer.
// Events emitted afterwards are dropped.
func (p *Publisher) Close(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	<-p.done
	p.Flush(ctx)
}
