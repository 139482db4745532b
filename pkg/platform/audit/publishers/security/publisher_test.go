package security

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "treasury/pkg/domain"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/audit/store/memory"
	"treasury/pkg/requestcontext"
)

// stalledStore blocks every Append until release is closed.
type stalledStore struct {
	*memory.InMemoryStore
	release chan struct{}
}

func (s stalledStore) Append(ctx context.Context, e audit.Event) error {
	<-s.release
	return s.InMemoryStore.Append(ctx, e)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_PersistsInBackground(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger()))
	defer pub.Close(context.Background())

	ctx := requestcontext.WithCaller(context.Background(), id.MustAddress("alice"))
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	pub.Emit(ctx, audit.Event{Subject: "domain:1", Action: string(audit.EventRoleGranted)})

	require.Eventually(t, func() bool {
		events, _ := store.ListBySubject(context.Background(), "domain:1")
		return len(events) == 1
	}, time.Second, 5*time.Millisecond)

	events, err := store.ListBySubject(context.Background(), "domain:1")
	require.NoError(t, err)
	assert.Equal(t, id.Address("alice"), events[0].Actor)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_FlushWritesBufferedEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger()))
	defer pub.Close(context.Background())

	for range 5 {
		pub.Emit(context.Background(), audit.Event{Subject: "skill:3", Action: string(audit.EventSkillAdded)})
	}
	pub.Flush(context.Background())

	events, err := store.ListBySubject(context.Background(), "skill:3")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestPublisher_StalledStoreDoesNotBlockEmit(t *testing.T) {
	store := stalledStore{InMemoryStore: memory.NewInMemoryStore(), release: make(chan struct{})}
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := New(store, WithBufferSize(2), WithLogger(quietLogger()), WithMetrics(metrics))

	emitted := make(chan struct{})
	go func() {
		defer close(emitted)
		for range 6 {
			pub.Emit(context.Background(), audit.Event{Subject: "domain:1", Action: string(audit.EventAuthorizationDenied)})
		}
	}()
	select {
	case <-emitted:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a stalled store")
	}

	dropped := pub.Dropped()
	assert.Positive(t, dropped)
	assert.Equal(t, float64(dropped), testutil.ToFloat64(metrics.Dropped))
	assert.Equal(t, float64(6), testutil.ToFloat64(metrics.Emitted))

	close(store.release)
	pub.Close(context.Background())

	events, err := store.ListBySubject(context.Background(), "domain:1")
	require.NoError(t, err)
	assert.Len(t, events, 6-int(dropped))
}

func TestPublisher_EmitAfterCloseIsDropped(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(quietLogger()))
	pub.Close(context.Background())
	pub.Close(context.Background())

	pub.Emit(context.Background(), audit.Event{Subject: "domain:1", Action: string(audit.EventRoleRevoked)})
	pub.Flush(context.Background())

	events, err := store.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}
