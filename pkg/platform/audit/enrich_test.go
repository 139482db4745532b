package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "treasury/pkg/domain"
	"treasury/pkg/requestcontext"
)

func TestEnrich_FillsRequestMetadata(t *testing.T) {
	ctx := requestcontext.WithCaller(context.Background(), id.MustAddress("alice"))
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	ctx = requestcontext.WithClientIP(ctx, "10.0.0.1")

	before := time.Now()
	e := Enrich(ctx, Event{Subject: "domain:1", Action: string(EventRoleGranted)})
	after := time.Now()

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, id.Address("alice"), e.Actor)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "10.0.0.1", e.ClientIP)
	assert.Equal(t, CategorySecurity, e.Category)
	assert.False(t, e.Timestamp.Before(before))
	assert.False(t, e.Timestamp.After(after))
}

func TestEnrich_KeepsExplicitValues(t *testing.T) {
	ctx := requestcontext.WithCaller(context.Background(), id.MustAddress("alice"))
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	eventID := uuid.New()

	e := Enrich(ctx, Event{
		ID:        eventID,
		Timestamp: at,
		Actor:     id.MustAddress("bob"),
		Category:  CategoryOperations,
		Subject:   "expenditure:1",
		Action:    string(EventFundsMoved),
	})

	assert.Equal(t, eventID, e.ID)
	assert.Equal(t, at, e.Timestamp)
	assert.Equal(t, id.Address("bob"), e.Actor)
	assert.Equal(t, CategoryOperations, e.Category)
}
