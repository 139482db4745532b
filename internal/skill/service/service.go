// Package service exposes the skill catalogue to the expenditure module and
// to operators.
package service

import (
	"context"
	"errors"
	"log/slog"

	"treasury/internal/skill/models"
	"treasury/internal/skill/store/memory"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/circuit"
	"treasury/pkg/platform/sentinel"
)

type Store interface {
	Add(ctx context.Context, skill models.Skill) error
	Get(ctx context.Context, skillID id.SkillID) (*models.Skill, error)
	Deprecate(ctx context.Context, skillID id.SkillID) error
	List(ctx context.Context) ([]models.Skill, error)
}

// SecurityAuditor records access-control and operator events. It never
// fails the caller; delivery is best effort.
type SecurityAuditor interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service reads through a primary store. With WithFallback configured, every
// successful read refreshes a local mirror, and lookups are served from the
// mirror while the breaker around the primary is open.
type Service struct {
	store           Store
	mirror          *memory.Store
	breaker         *circuit.Breaker
	logger          *slog.Logger
	securityAuditor SecurityAuditor
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithSecurityAuditor(auditor SecurityAuditor) Option {
	return func(s *Service) {
		s.securityAuditor = auditor
	}
}

// WithFallback enables the local mirror guarded by breaker.
func WithFallback(breaker *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = breaker
		s.mirror = memory.New()
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsSkillDeprecated reports the deprecation flag of a catalogued skill.
// Unknown skills fail with CodeNotFound.
func (s *Service) IsSkillDeprecated(ctx context.Context, skillID id.SkillID) (bool, error) {
	skill, err := s.get(ctx, skillID)
	if err != nil {
		return false, err
	}
	return skill.Deprecated, nil
}

func (s *Service) get(ctx context.Context, skillID id.SkillID) (*models.Skill, error) {
	skill, err := s.store.Get(ctx, skillID)
	switch {
	case err == nil:
		s.recordSuccess(ctx)
		if s.mirror != nil {
			s.mirror.Put(*skill)
		}
		return skill, nil
	case errors.Is(err, sentinel.ErrNotFound):
		s.recordSuccess(ctx)
		return nil, dErrors.Newf(dErrors.CodeNotFound, "skill %s does not exist", skillID)
	}

	if s.breaker == nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load skill")
	}
	useFallback, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.WarnContext(ctx, "skill store circuit opened, serving from local mirror",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	if !useFallback {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load skill")
	}
	cached, mirrorErr := s.mirror.Get(ctx, skillID)
	if mirrorErr != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "skill store unavailable and skill not cached")
	}
	return cached, nil
}

func (s *Service) recordSuccess(ctx context.Context) {
	if s.breaker == nil {
		return
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "skill store circuit closed", "breaker", s.breaker.Name())
	}
}

// AddSkill registers a new, active skill.
func (s *Service) AddSkill(ctx context.Context, skillID id.SkillID) (*models.Skill, error) {
	if skillID == id.NoSkill {
		return nil, dErrors.New(dErrors.CodeValidation, "skill id 0 is reserved")
	}
	skill := models.Skill{ID: skillID}
	if err := s.store.Add(ctx, skill); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "skill %s already exists", skillID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add skill")
	}
	if s.mirror != nil {
		s.mirror.Put(skill)
	}
	s.emit(ctx, audit.EventSkillAdded, skillID)
	return &skill, nil
}

// DeprecateSkill marks a skill deprecated. Deprecating twice is a no-op.
func (s *Service) DeprecateSkill(ctx context.Context, skillID id.SkillID) (*models.Skill, error) {
	if err := s.store.Deprecate(ctx, skillID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "skill %s does not exist", skillID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deprecate skill")
	}
	skill := models.Skill{ID: skillID, Deprecated: true}
	if s.mirror != nil {
		s.mirror.Put(skill)
	}
	s.emit(ctx, audit.EventSkillDeprecated, skillID)
	return &skill, nil
}

func (s *Service) ListSkills(ctx context.Context) ([]models.Skill, error) {
	skills, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list skills")
	}
	return skills, nil
}

// Seed adds skills, ignoring ones that already exist, and applies
// deprecation flags.
func (s *Service) Seed(ctx context.Context, skills []models.Skill) error {
	for _, skill := range skills {
		if _, err := s.AddSkill(ctx, skill.ID); err != nil && !dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		if skill.Deprecated {
			if _, err := s.DeprecateSkill(ctx, skill.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, skillID id.SkillID) {
	s.logger.InfoContext(ctx, string(event), "skill_id", skillID, "log_type", "audit")
	if s.securityAuditor == nil {
		return
	}
	s.securityAuditor.Emit(ctx, audit.Event{
		Subject: "skill:" + skillID.String(),
		Action:  string(event),
	})
}
