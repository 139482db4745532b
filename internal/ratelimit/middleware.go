package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "treasury/pkg/domain-errors"
	"treasury/pkg/platform/httputil"
	"treasury/pkg/requestcontext"
)

// Middleware admits requests against a per-caller budget for each class.
type Middleware struct {
	store    Store
	limits   map[Class]Limit
	logger   *slog.Logger
	rejected *prometheus.CounterVec
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithRegisterer exports a rejection counter.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Middleware) {
		m.rejected = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_rate_limited_requests_total",
			Help: "Requests rejected by the per-caller rate limiter",
		}, []string{"class"})
	}
}

// RejectedCounter returns the rejection counter, or nil without WithRegisterer.
func (m *Middleware) RejectedCounter() *prometheus.CounterVec {
	return m.rejected
}

// New builds the middleware. A class without a positive limit is not
// throttled.
func New(store Store, limits map[Class]Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limits: limits,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit must run after authentication. Requests without a caller are keyed
// by client IP.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := ClassOf(r)
		limit, ok := m.limits[class]
		if m.disabled || !ok || limit.Requests <= 0 || limit.Window <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := "ip:" + requestcontext.ClientIP(ctx)
		if caller := requestcontext.Caller(ctx); !caller.IsNil() {
			key = "account:" + caller.String()
		}
		key += ":" + string(class)

		now := requestcontext.Now(ctx)
		result, err := m.store.Allow(ctx, key, limit, now)
		if err != nil {
			// Fail open on store errors.
			m.logger.ErrorContext(ctx, "failed to check rate limit", "error", err, "key", key)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if m.rejected != nil {
				m.rejected.WithLabelValues(string(class)).Inc()
			}
			m.logger.WarnContext(ctx, "rate limit exceeded", "key", key, "limit", result.Limit)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(now)))
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeRateLimited,
				"at most %d %s requests per %s", limit.Requests, class, limit.Window))
			return
		}
		next.ServeHTTP(w, r)
	})
}
