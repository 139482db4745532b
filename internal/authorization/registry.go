// Package authorization answers whether an account administers a domain.
// Roles are held in memory and seeded at startup; operators change them
// through the admin API.
package authorization

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	audit "treasury/pkg/platform/audit"
)

// SecurityAuditor records access-control and operator events. It never
// fails the caller; delivery is best effort.
type SecurityAuditor interface {
	Emit(ctx context.Context, event audit.Event)
}

// Registry maps domains to their administrators.
type Registry struct {
	mu     sync.RWMutex
	admins map[id.DomainID]map[id.Address]struct{}

	logger          *slog.Logger
	securityAuditor SecurityAuditor
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithSecurityAuditor(auditor SecurityAuditor) Option {
	return func(r *Registry) {
		r.securityAuditor = auditor
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{admins: make(map[id.DomainID]map[id.Address]struct{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AuthorizeAdministration reports whether account administers domain.
func (r *Registry) AuthorizeAdministration(_ context.Context, domain id.DomainID, account id.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.admins[domain][account]
	return ok, nil
}

// Grant makes account an administrator of domain. Granting twice is a no-op.
func (r *Registry) Grant(ctx context.Context, domain id.DomainID, account id.Address) error {
	if domain.IsNil() || account.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "domain and account are required")
	}
	r.mu.Lock()
	set, ok := r.admins[domain]
	if !ok {
		set = make(map[id.Address]struct{})
		r.admins[domain] = set
	}
	_, existed := set[account]
	set[account] = struct{}{}
	r.mu.Unlock()

	if !existed {
		r.emit(ctx, audit.EventRoleGranted, domain, account)
	}
	return nil
}

// Revoke removes account from domain's administrators.
func (r *Registry) Revoke(ctx context.Context, domain id.DomainID, account id.Address) error {
	r.mu.Lock()
	_, existed := r.admins[domain][account]
	delete(r.admins[domain], account)
	r.mu.Unlock()

	if !existed {
		return dErrors.New(dErrors.CodeNotFound, "account is not an administrator of the domain")
	}
	r.emit(ctx, audit.EventRoleRevoked, domain, account)
	return nil
}

// Administrators lists domain's administrators in sorted order.
func (r *Registry) Administrators(_ context.Context, domain id.DomainID) []id.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]id.Address, 0, len(r.admins[domain]))
	for a := range r.admins[domain] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) emit(ctx context.Context, event audit.AuditEvent, domain id.DomainID, account id.Address) {
	if r.logger != nil {
		r.logger.InfoContext(ctx, string(event),
			"domain_id", domain,
			"account", account,
			"log_type", "audit",
		)
	}
	if r.securityAuditor == nil {
		return
	}
	r.securityAuditor.Emit(ctx, audit.Event{
		Subject:    "domain:" + domain.String(),
		Action:     string(event),
		Attributes: map[string]string{"account": account.String()},
	})
}
