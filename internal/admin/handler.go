// Package admin exposes operator endpoints behind the admin token: domain
// administrator roles, the skill catalogue, audit queries and caller token
// revocation.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	skillmodels "treasury/internal/skill/models"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/httputil"
	"treasury/pkg/requestcontext"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// RoleRegistry manages domain administrators.
type RoleRegistry interface {
	Grant(ctx context.Context, domain id.DomainID, account id.Address) error
	Revoke(ctx context.Context, domain id.DomainID, account id.Address) error
	Administrators(ctx context.Context, domain id.DomainID) []id.Address
}

// SkillCatalogue manages the global skill list.
type SkillCatalogue interface {
	AddSkill(ctx context.Context, skillID id.SkillID) (*skillmodels.Skill, error)
	DeprecateSkill(ctx context.Context, skillID id.SkillID) (*skillmodels.Skill, error)
	ListSkills(ctx context.Context) ([]skillmodels.Skill, error)
}

// AuditLog reads materialized audit events. audit.Store satisfies it.
type AuditLog interface {
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// TokenRevoker blocks caller tokens by id until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type Handler struct {
	roles    RoleRegistry
	skills   SkillCatalogue
	auditLog AuditLog
	revoker  TokenRevoker
	tokenTTL time.Duration
	logger   *slog.Logger
}

// New constructs the admin handler. tokenTTL bounds how long a revocation
// entry is kept.
func New(roles RoleRegistry, skills SkillCatalogue, auditLog AuditLog, revoker TokenRevoker, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		roles:    roles,
		skills:   skills,
		auditLog: auditLog,
		revoker:  revoker,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Register mounts the admin endpoints. The caller applies the admin token
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/domains/{domain}/administrators", h.HandleListAdministrators)
	r.Put("/domains/{domain}/administrators/{account}", h.HandleGrant)
	r.Delete("/domains/{domain}/administrators/{account}", h.HandleRevoke)

	r.Get("/skills", h.HandleListSkills)
	r.Post("/skills", h.HandleAddSkill)
	r.Post("/skills/{skill}/deprecate", h.HandleDeprecateSkill)

	r.Get("/audit", h.HandleAudit)
	r.Post("/tokens/revoke", h.HandleRevokeToken)
}

func (h *Handler) HandleListAdministrators(w http.ResponseWriter, r *http.Request) {
	domain, err := id.ParseDomainID(chi.URLParam(r, "domain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	admins := h.roles.Administrators(r.Context(), domain)
	httputil.WriteJSON(w, http.StatusOK, FromAdministrators(domain, admins))
}

func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, "administrator granted", h.roles.Grant)
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, "administrator revoked", h.roles.Revoke)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request, msg string,
	fn func(context.Context, id.DomainID, id.Address) error,
) {
	ctx := r.Context()
	domain, err := id.ParseDomainID(chi.URLParam(r, "domain"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	account, err := id.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := fn(ctx, domain, account); err != nil {
		h.logger.WarnContext(ctx, "role change failed",
			"request_id", requestcontext.RequestID(ctx),
			"domain_id", domain,
			"account", account,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"domain_id", domain,
		"account", account,
	)
	httputil.WriteJSON(w, http.StatusOK, FromAdministrators(domain, h.roles.Administrators(ctx, domain)))
}

func (h *Handler) HandleListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.skills.ListSkills(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SkillsResponse{Skills: skills})
}

func (h *Handler) HandleAddSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AddSkillRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	skill, err := h.skills.AddSkill(ctx, req.ParsedSkillID())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, skill)
}

func (h *Handler) HandleDeprecateSkill(w http.ResponseWriter, r *http.Request) {
	skillID, err := id.ParseSkillID(chi.URLParam(r, "skill"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	skill, err := h.skills.DeprecateSkill(r.Context(), skillID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, skill)
}

// HandleAudit handles GET /admin/audit?subject=expenditure:7 or
// GET /admin/audit?limit=20.
func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		events []audit.Event
		err    error
	)
	if subject := r.URL.Query().Get("subject"); subject != "" {
		events, err = h.auditLog.ListBySubject(ctx, subject)
	} else {
		limit, perr := parseLimit(r.URL.Query().Get("limit"))
		if perr != nil {
			httputil.WriteError(w, perr)
			return
		}
		events, err = h.auditLog.ListRecent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit log",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit log"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

func (h *Handler) HandleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RevokeTokenRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.revoker.Revoke(ctx, req.JTI, h.tokenTTL); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token"))
		return
	}
	h.logger.InfoContext(ctx, "caller token revoked",
		"request_id", requestcontext.RequestID(ctx),
		"jti", req.JTI,
	)
	w.WriteHeader(http.StatusNoContent)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultAuditLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
	}
	return min(n, maxAuditLimit), nil
}
