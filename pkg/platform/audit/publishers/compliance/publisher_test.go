package compliance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "treasury/pkg/domain"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/audit/store/memory"
	"treasury/pkg/requestcontext"
)

const subject = "expenditure:1"

var errDiskFull = errors.New("disk full")

type failingStore struct {
	*memory.InMemoryStore
}

func (failingStore) Append(context.Context, audit.Event) error {
	return errDiskFull
}

func TestPublisher_PersistsEnrichedEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := New(store, WithMetrics(metrics))

	ctx := requestcontext.WithCaller(context.Background(), id.MustAddress("alice"))
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	require.NoError(t, pub.Emit(ctx, audit.Event{Subject: subject, Action: string(audit.EventPayoutSet)}))

	events, err := store.ListBySubject(ctx, subject)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id.Address("alice"), events[0].Actor)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, audit.CategoryFinancial, events[0].Category)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsEmitted))
}

func TestPublisher_FailsClosed(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := New(failingStore{memory.NewInMemoryStore()},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics),
	)

	err := pub.Emit(context.Background(), audit.Event{Subject: subject, Action: string(audit.EventFundsMoved)})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PersistFailures))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.EventsEmitted))
}

func TestPublisher_RejectsIncompleteEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)

	assert.ErrorIs(t, pub.Emit(context.Background(), audit.Event{Subject: subject}), ErrMissingAction)
	assert.ErrorIs(t, pub.Emit(context.Background(), audit.Event{Action: "payout_set"}), ErrMissingSubject)

	recent, err := store.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestPublisher_ListsInOrder(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)

	actions := []audit.AuditEvent{
		audit.EventExpenditureCreated,
		audit.EventPayoutSet,
		audit.EventExpenditureFinalized,
	}
	for _, a := range actions {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: subject, Action: string(a)}))
	}
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "expenditure:2", Action: "other"}))

	result, err := store.ListBySubject(context.Background(), subject)
	require.NoError(t, err)
	require.Len(t, result, 3)
	for i, a := range actions {
		assert.Equal(t, string(a), result[i].Action)
	}
}
