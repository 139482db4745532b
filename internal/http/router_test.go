package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"treasury/internal/admin"
	"treasury/internal/authorization"
	exphandler "treasury/internal/expenditure/handler"
	"treasury/internal/expenditure/service"
	"treasury/internal/expenditure/store/memory"
	httpapi "treasury/internal/http"
	jwttoken "treasury/internal/jwt_token"
	"treasury/internal/network"
	"treasury/internal/platform/metrics"
	"treasury/internal/ratelimit"
	ratememory "treasury/internal/ratelimit/store/memory"
	skillservice "treasury/internal/skill/service"
	skillmemory "treasury/internal/skill/store/memory"
	id "treasury/pkg/domain"
	"treasury/pkg/platform/audit/publishers/compliance"
	"treasury/pkg/platform/audit/publishers/security"
	auditmemory "treasury/pkg/platform/audit/store/memory"
	adminmw "treasury/pkg/platform/middleware/admin"
	request "treasury/pkg/platform/middleware/request"
)

const (
	adminToken  = "operator-secret"
	writeBudget = 5
)

type RouterSuite struct {
	suite.Suite
	server  *httptest.Server
	jwt     *jwttoken.JWTService
	revoked *jwttoken.MemoryRevocationList
	healthy atomic.Bool
	auditor *security.Publisher
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	events := auditmemory.NewInMemoryStore()
	s.auditor = security.New(events, security.WithLogger(logger))
	s.T().Cleanup(func() { s.auditor.Close(context.Background()) })
	roles := authorization.NewRegistry(authorization.WithSecurityAuditor(s.auditor))
	s.Require().NoError(roles.Grant(ctx, 1, "admin"))
	skills := skillservice.New(skillmemory.New(), skillservice.WithSecurityAuditor(s.auditor))
	params, err := network.New(100, "network-treasury", "organization")
	s.Require().NoError(err)

	svc, err := service.New(memory.New(), roles, skills, params,
		service.WithLogger(logger),
		service.WithAuditPublisher(compliance.New(events)),
		service.WithSecurityAuditor(s.auditor),
	)
	s.Require().NoError(err)
	s.Require().NoError(svc.Bootstrap(ctx))

	s.jwt = jwttoken.NewJWTService("test-key", "treasury", "treasury-api")
	s.revoked = jwttoken.NewMemoryRevocationList()
	s.healthy.Store(true)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:      logger,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		Validator:   jwttoken.NewJWTServiceAdapter(s.jwt),
		Revocations: s.revoked,
		RateLimiter: ratelimit.New(ratememory.New(), map[ratelimit.Class]ratelimit.Limit{
			ratelimit.ClassWrite: {Requests: writeBudget, Window: time.Minute},
		}, logger),
		AdminToken:   adminToken,
		Expenditures: exphandler.New(svc, logger),
		Admin:        admin.New(roles, skills, events, s.revoked, time.Hour, logger),
		HealthChecks: map[string]httpapi.HealthCheck{
			"store": func(context.Context) error {
				if !s.healthy.Load() {
					return errors.New("unreachable")
				}
				return nil
			},
		},
	})
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *RouterSuite) call(method, path string, body any, header http.Header) *http.Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *RouterSuite) bearer(account id.Address) http.Header {
	token, err := s.jwt.GenerateCallerToken(account, time.Minute)
	s.Require().NoError(err)
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func (s *RouterSuite) TestHealthAndMetrics() {
	resp := s.call(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(resp.Header.Get(request.HeaderRequestID))

	s.healthy.Store(false)
	resp = s.call(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)

	resp = s.call(http.MethodGet, "/metrics", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(raw), "treasury_http_request_duration_seconds")
	s.Contains(string(raw), `treasury_dependency_up{dependency="store"} 0`)
}

func (s *RouterSuite) TestExpenditureRoutesRequireBearerToken() {
	resp := s.call(http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.call(http.MethodPost, "/expenditures", map[string]any{"domain_id": 1},
		http.Header{"Authorization": []string{"Bearer not-a-jwt"}})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterSuite) TestCreateAndReadExpenditure() {
	resp := s.call(http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, s.bearer("admin"))
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created exphandler.ExpenditureResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&created))
	s.Equal(uint64(1), created.ID)
	s.Equal(uint64(2), created.FundingPotID)
	s.Equal("admin", created.Owner)

	resp = s.call(http.MethodGet, "/expenditures/1", nil, s.bearer("someone"))
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = s.call(http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, s.bearer("someone"))
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *RouterSuite) TestRevokedTokenIsRejected() {
	token, err := s.jwt.GenerateCallerToken("admin", time.Minute)
	s.Require().NoError(err)
	claims, err := s.jwt.ValidateToken(token)
	s.Require().NoError(err)
	header := http.Header{"Authorization": []string{"Bearer " + token}}

	resp := s.call(http.MethodPost, "/admin/tokens/revoke", map[string]any{"jti": claims.ID},
		http.Header{adminmw.HeaderAdminToken: []string{adminToken}})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)

	resp = s.call(http.MethodGet, "/expenditures/count", nil, header)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterSuite) TestAdminRoutesRequireOperatorToken() {
	resp := s.call(http.MethodGet, "/admin/skills", nil, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.call(http.MethodGet, "/admin/skills", nil,
		http.Header{adminmw.HeaderAdminToken: []string{adminToken}})
	s.Equal(http.StatusOK, resp.StatusCode)

	s.auditor.Flush(context.Background())
	resp = s.call(http.MethodGet, "/admin/audit?subject=domain:1", nil,
		http.Header{adminmw.HeaderAdminToken: []string{adminToken}})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.True(strings.Contains(string(raw), "role_granted"))
}

func (s *RouterSuite) TestWritesAreRateLimitedPerCaller() {
	for range writeBudget {
		resp := s.call(http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, s.bearer("admin"))
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
	}

	resp := s.call(http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, s.bearer("admin"))
	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
	s.NotEmpty(resp.Header.Get("Retry-After"))

	resp = s.call(http.MethodGet, "/expenditures/count", nil, s.bearer("admin"))
	s.Equal(http.StatusOK, resp.StatusCode)

	resp = s.call(http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, s.bearer("someone-else"))
	s.Equal(http.StatusForbidden, resp.StatusCode)
}
