package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"treasury/internal/expenditure/service"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/audit/publishers/compliance"
	"treasury/pkg/platform/audit/publishers/security"
	auditmemory "treasury/pkg/platform/audit/store/memory"
)

// stalledAuditStore blocks every Append until release is closed.
type stalledAuditStore struct {
	*auditmemory.InMemoryStore
	release chan struct{}
}

func (s stalledAuditStore) Append(ctx context.Context, e audit.Event) error {
	<-s.release
	return s.InMemoryStore.Append(ctx, e)
}

type refusingAuditStore struct {
	*auditmemory.InMemoryStore
}

func (refusingAuditStore) Append(context.Context, audit.Event) error {
	return errors.New("audit database unavailable")
}

func (s *ServiceSuite) TestStalledSecuritySinkDoesNotFailLedgerWrites() {
	stalled := stalledAuditStore{InMemoryStore: auditmemory.NewInMemoryStore(), release: make(chan struct{})}
	auditor := security.New(stalled,
		security.WithBufferSize(1),
		security.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	svc := s.newService(s.store, service.WithSecurityAuditor(auditor))

	before, err := svc.GetExpenditureCount(s.ctx)
	s.Require().NoError(err)

	for range 5 {
		_, err := svc.CreateExpenditure(s.ctx, 1, user)
		s.requireCode(err, dErrors.CodeUnauthorized)
	}
	for range 5 {
		_, err := svc.CreateExpenditure(s.ctx, 1, admin)
		s.Require().NoError(err)
	}

	after, err := svc.GetExpenditureCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(before+5, after)
	s.Positive(auditor.Dropped())

	for i := before + 1; i <= after; i++ {
		events, err := s.auditStore.ListBySubject(s.ctx, "expenditure:"+id.ExpenditureID(i).String())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventExpenditureCreated), events[0].Action)
	}

	close(stalled.release)
	auditor.Close(context.Background())
}

func (s *ServiceSuite) TestComplianceFailureRollsBackAndIsNotLogged() {
	var logs bytes.Buffer
	svc := s.newService(s.store,
		service.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		service.WithAuditPublisher(compliance.New(refusingAuditStore{auditmemory.NewInMemoryStore()})),
	)

	before, err := svc.GetExpenditureCount(s.ctx)
	s.Require().NoError(err)

	_, err = svc.CreateExpenditure(s.ctx, 1, admin)
	s.requireCode(err, dErrors.CodeInternal)

	after, err := svc.GetExpenditureCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(before, after)
	s.NotContains(logs.String(), string(audit.EventExpenditureCreated))
}
