// Package httpapi assembles the public router: the shared middleware chain,
// health and metrics endpoints, caller-authenticated expenditure routes and
// the operator routes under /admin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"treasury/internal/platform/metrics"
	"treasury/pkg/platform/httputil"
	adminmw "treasury/pkg/platform/middleware/admin"
	authmw "treasury/pkg/platform/middleware/auth"
	"treasury/pkg/platform/middleware/metadata"
	request "treasury/pkg/platform/middleware/request"
	"treasury/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Middleware wraps a handler.
type Middleware interface {
	Limit(next http.Handler) http.Handler
}

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router needs.
type Deps struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Validator    authmw.JWTValidator
	Revocations  authmw.TokenRevocationChecker
	RateLimiter  Middleware
	AdminToken   string
	Expenditures Registrar
	Admin        Registrar
	HealthChecks map[string]HealthCheck
}

// NewRouter builds the HTTP handler tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(deps.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Get("/health", healthHandler(deps))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.Validator, deps.Revocations, deps.Logger))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Limit)
		}
		deps.Expenditures.Register(r)
	})

	if deps.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(deps.AdminToken, deps.Logger))
			deps.Admin.Register(r)
		})
	}
	return r
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(deps.HealthChecks) > 0 {
			resp.Dependencies = make(map[string]string, len(deps.HealthChecks))
		}
		for name, check := range deps.HealthChecks {
			err := check(ctx)
			if deps.Metrics != nil {
				deps.Metrics.SetDependencyUp(name, err == nil)
			}
			if err != nil {
				deps.Logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				resp.Dependencies[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[name] = "up"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
