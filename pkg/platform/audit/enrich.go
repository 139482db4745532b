package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"treasury/pkg/requestcontext"
)

// Enrich fills in identity, time, category and request metadata that the
// emitting code left blank. Values already set on the event are kept.
func Enrich(ctx context.Context, event Event) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	if event.Actor.IsNil() {
		event.Actor = requestcontext.Caller(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	return event
}
