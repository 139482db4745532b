package worker

import (
	"context"
	"log/slog"
	"sync"

	audit "treasury/pkg/platform/audit"
)

const defaultBatchSize = 100

// Source hands out buffered events oldest first.
type Source interface {
	DequeueBatch(n int) []audit.Event
}

// Worker moves events from a buffer into the audit store. A failed append is
// logged and the worker moves on; audit persistence never stalls the buffer.
type Worker struct {
	store     audit.Store
	source    Source
	logger    *slog.Logger
	batchSize int
	onFailure func()

	// mu serializes drains so Drain returns only after events taken by a
	// concurrent drain have been written too.
	mu sync.Mutex
}

type Option func(*Worker)

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithFailureHook is called once per event the store refused.
func WithFailureHook(fn func()) Option {
	return func(w *Worker) {
		w.onFailure = fn
	}
}

func NewWorker(store audit.Store, source Source, logger *slog.Logger, opts ...Option) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{store: store, source: source, logger: logger, batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the source every time wake fires, until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, wake <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
			w.Drain(ctx)
		}
	}
}

// Drain persists every event currently buffered and returns how many were
// written.
func (w *Worker) Drain(ctx context.Context) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	written := 0
	for {
		batch := w.source.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return written
		}
		for _, event := range batch {
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"subject", event.Subject,
					"error", err,
				)
				if w.onFailure != nil {
					w.onFailure()
				}
				continue
			}
			written++
		}
	}
}
