// Package consumer materializes audit events published by the outbox relay
// into the queryable audit_events table.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"treasury/internal/platform/kafka"
	audit "treasury/pkg/platform/audit"
	auditpg "treasury/pkg/platform/audit/store/postgres"
)

// Materializer stores a decoded event idempotently.
type Materializer interface {
	AppendWithID(ctx context.Context, event audit.Event) error
}

// Handler decodes outbox payloads and writes them to the projection.
type Handler struct {
	store  Materializer
	logger *slog.Logger
}

func NewHandler(store Materializer, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Handle skips malformed payloads so a poison message cannot block the
// partition; storage failures are returned for redelivery.
func (h *Handler) Handle(ctx context.Context, msg *kafka.Message) error {
	var payload auditpg.Payload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.WarnContext(ctx, "skipping malformed audit message",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	event, err := payload.ToEvent()
	if err != nil {
		h.logger.WarnContext(ctx, "skipping audit message without valid id",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	return h.store.AppendWithID(ctx, event)
}
