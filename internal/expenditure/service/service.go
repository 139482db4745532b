// Package service implements the expenditure registry, the funding pot
// capability and claim settlement over transactional stores.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"treasury/internal/expenditure/metrics"
	"treasury/internal/expenditure/models"
	"treasury/pkg/attrs"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/sentinel"
)

const (
	// RootDomainID is the organization's top-level domain. Its pot is pot 1.
	RootDomainID id.DomainID = 1

	defaultMaxRecipientSkills = 32
	tracerName                = "treasury/expenditure"
)

// Service owns every mutation of expenditures, pots and payouts. Each
// exported mutation is a single unit of work: all of its effects, including
// the audit record, commit together or not at all.
type Service struct {
	tx      StoreTx
	authz   AuthorizationGate
	skills  SkillRegistry
	network NetworkParams

	logger             *slog.Logger
	auditPublisher     AuditPublisher
	securityAuditor    SecurityAuditor
	metrics            *metrics.Metrics
	tracer             trace.Tracer
	maxRecipientSkills int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher sets the fail-closed publisher for ledger events.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithSecurityAuditor sets the buffered sink for authorization denials.
func WithSecurityAuditor(auditor SecurityAuditor) Option {
	return func(s *Service) {
		s.securityAuditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithMaxRecipientSkills caps the skill set of a single recipient.
func WithMaxRecipientSkills(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRecipientSkills = n
		}
	}
}

func New(tx StoreTx, authz AuthorizationGate, skills SkillRegistry, network NetworkParams, opts ...Option) (*Service, error) {
	if tx == nil || authz == nil || skills == nil || network == nil {
		return nil, errors.New("expenditure service: store, authorization gate, skill registry and network params are required")
	}
	if network.FeeInverse() == 0 {
		return nil, errors.New("expenditure service: fee inverse must be positive")
	}
	s := &Service{
		tx:                 tx,
		authz:              authz,
		skills:             skills,
		network:            network,
		logger:             slog.Default(),
		tracer:             otel.Tracer(tracerName),
		maxRecipientSkills: defaultMaxRecipientSkills,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Bootstrap allocates the root domain pot so that it is always pot 1. It is
// idempotent.
func (s *Service) Bootstrap(ctx context.Context) error {
	return s.run(ctx, "bootstrap", "", func(ctx context.Context) error {
		return s.inDomainPotTx(ctx, func(ctx context.Context, stores Stores) error {
			pot, err := s.ensureDomainPot(ctx, stores, RootDomainID)
			if err != nil {
				return err
			}
			if pot.ID != 1 {
				return dErrors.Newf(dErrors.CodeInvariantViolation, "root domain pot is %s, expected 1", pot.ID)
			}
			return nil
		})
	})
}

// errDomainPotRace marks a unit of work that lost the race to allocate a
// domain pot. Its transaction is already aborted; running it again reads the
// pot the winner committed.
var errDomainPotRace = errors.New("domain pot race")

// inDomainPotTx runs fn as a unit of work, running it once more if it lost
// the race to allocate a domain pot.
func (s *Service) inDomainPotTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	err := s.tx.RunInTx(ctx, fn)
	if errors.Is(err, errDomainPotRace) {
		s.logger.InfoContext(ctx, "domain pot allocated concurrently, re-reading")
		err = s.tx.RunInTx(ctx, fn)
	}
	return err
}

// ensureDomainPot returns the pot of domain, allocating it on first use.
func (s *Service) ensureDomainPot(ctx context.Context, stores Stores, domain id.DomainID) (*models.FundingPot, error) {
	pot, err := stores.Pots().FindByAssociation(ctx, models.AssociationDomain, uint64(domain))
	if err == nil {
		return pot, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up domain pot")
	}
	potID, err := stores.Pots().NextID(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate funding pot id")
	}
	pot = &models.FundingPot{ID: potID, AssociatedType: models.AssociationDomain, AssociatedID: uint64(domain)}
	if err := stores.Pots().Create(ctx, pot); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(errDomainPotRace, dErrors.CodeConflict, "domain pot allocated concurrently, retry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create domain pot")
	}
	s.logger.InfoContext(ctx, "domain funding pot allocated",
		"domain_id", domain,
		"funding_pot_id", potID,
	)
	return pot, nil
}

// run wraps an operation with a span, latency and outcome metrics, and an
// audit record when the caller was refused.
func (s *Service) run(ctx context.Context, operation string, caller id.Address, fn func(ctx context.Context) error, spanAttrs ...attribute.KeyValue) error {
	spanAttrs = append(spanAttrs, attribute.String("caller", caller.String()))
	spanCtx, span := s.tracer.Start(ctx, "expenditure."+operation, trace.WithAttributes(spanAttrs...))
	defer span.End()

	start := time.Now()
	err := fn(spanCtx)

	code := "ok"
	if err != nil {
		code = string(dErrors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) || dErrors.HasCode(err, dErrors.CodeNotOwner) {
			s.metrics.IncrementDenied(operation)
			s.auditDenied(spanCtx, operation, caller, err)
		}
	}
	s.metrics.ObserveOperation(operation, code, time.Since(start))
	return err
}

// logAudit emits the event through the compliance publisher and logs it
// once recorded. Callers run it last inside the unit of work, so a failed
// emission rolls the change back.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, actor id.Address, subject string, kv ...any) error {
	if s.auditPublisher != nil {
		err := s.auditPublisher.Emit(ctx, audit.Event{
			Actor:      actor,
			Subject:    subject,
			Action:     string(event),
			Decision:   "allowed",
			Attributes: attrs.ToMap(kv),
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
	}

	args := append([]any{
		"actor", actor,
		"subject", subject,
		"log_type", "audit",
	}, kv...)
	s.logger.InfoContext(ctx, string(event), args...)
	return nil
}

// auditDenied runs outside any unit of work; the refused operation has
// already rolled back.
func (s *Service) auditDenied(ctx context.Context, operation string, caller id.Address, cause error) {
	s.logger.WarnContext(ctx, string(audit.EventAuthorizationDenied),
		"operation", operation,
		"actor", caller,
		"reason", cause.Error(),
		"log_type", "audit",
	)
	if s.securityAuditor == nil {
		return
	}
	s.securityAuditor.Emit(ctx, audit.Event{
		Actor:      caller,
		Subject:    "operation:" + operation,
		Action:     string(audit.EventAuthorizationDenied),
		Decision:   "denied",
		Reason:     string(dErrors.CodeOf(cause)),
		Attributes: map[string]string{"operation": operation},
	})
}

func expenditureSubject(expID id.ExpenditureID) string { return "expenditure:" + expID.String() }
func potSubject(pot id.FundingPotID) string            { return "funding_pot:" + pot.String() }
func domainSubject(domain id.DomainID) string          { return "domain:" + domain.String() }
