package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/expenditures/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/expenditures/1", "/expenditures/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(reg, "treasury_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "both requests share one series")
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InFlight))
}

func TestSetDependencyUp(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetDependencyUp("redis", true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DependencyUp.WithLabelValues("redis")))
	m.SetDependencyUp("redis", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.DependencyUp.WithLabelValues("redis")))
}
