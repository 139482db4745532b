package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditpg "treasury/pkg/platform/audit/store/postgres"
)

type fakeStore struct {
	pending   []auditpg.OutboxEntry
	published []uuid.UUID
	fetchErr  error
}

func (s *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) FetchPending(_ context.Context, limit int) ([]auditpg.OutboxEntry, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []auditpg.OutboxEntry
	for _, e := range s.pending {
		if len(out) == limit {
			break
		}
		if !s.isPublished(e.ID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) isPublished(id uuid.UUID) bool {
	for _, p := range s.published {
		if p == id {
			return true
		}
	}
	return false
}

func (s *fakeStore) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	s.published = append(s.published, ids...)
	return nil
}

type fakeProducer struct {
	topic string
	sent  []Message
	err   error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, msgs ...Message) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.sent = append(p.sent, msgs...)
	return nil
}

func entries(n int) []auditpg.OutboxEntry {
	out := make([]auditpg.OutboxEntry, n)
	for i := range out {
		out[i] = auditpg.OutboxEntry{ID: uuid.New(), AggregateID: "expenditure:1", Payload: []byte(`{}`)}
	}
	return out
}

func TestRelayOnce_PublishesAndMarks(t *testing.T) {
	store := &fakeStore{pending: entries(3)}
	producer := &fakeProducer{}
	relay := NewRelay(store, producer, "treasury.audit", WithBatchSize(2))

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "treasury.audit", producer.topic)
	assert.Equal(t, []byte("expenditure:1"), producer.sent[0].Key)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, store.published, 3)
}

func TestRelayOnce_ProducerFailureLeavesRowsPending(t *testing.T) {
	store := &fakeStore{pending: entries(2)}
	relay := NewRelay(store, &fakeProducer{err: errors.New("broker down")}, "t")

	_, err := relay.RelayOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.published)
}

func TestRelayOnce_FetchFailure(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("db down")}
	relay := NewRelay(store, &fakeProducer{}, "t")

	_, err := relay.RelayOnce(context.Background())
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &fakeStore{pending: entries(1)}
	relay := NewRelay(store, &fakeProducer{}, "t", WithInterval(10*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}
