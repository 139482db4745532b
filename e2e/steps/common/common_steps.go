package common

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	Account(name string) string
	Request(ctx context.Context, method, path, caller string, body any) error
	AdminRequest(ctx context.Context, method, path string, body any) error
	StatusCode() int
	ResponseField(field string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the treasury service is healthy$`, steps.serviceIsHealthy)
	ctx.Step(`^"([^"]*)" administers domain (\d+)$`, steps.administersDomain)
	ctx.Step(`^skill (\d+) is registered$`, steps.skillIsRegistered)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsHealthy(ctx context.Context) error {
	if err := s.tc.Request(ctx, http.MethodGet, "/health", "", nil); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, http.StatusOK)
}

func (s *commonSteps) administersDomain(ctx context.Context, name string, domain int) error {
	path := fmt.Sprintf("/domains/%d/administrators/%s", domain, s.tc.Account(name))
	if err := s.tc.AdminRequest(ctx, http.MethodPut, path, nil); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, http.StatusOK)
}

func (s *commonSteps) skillIsRegistered(ctx context.Context, skill int) error {
	if err := s.tc.AdminRequest(ctx, http.MethodPost, "/skills", map[string]any{"skill_id": skill}); err != nil {
		return err
	}
	// Already registered by an earlier run is fine.
	if code := s.tc.StatusCode(); code != http.StatusCreated && code != http.StatusConflict {
		return fmt.Errorf("register skill %d: status %d", skill, code)
	}
	return nil
}

func (s *commonSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.StatusCode(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(ctx context.Context, want string) error {
	return s.fieldShouldBe(ctx, "error", want)
}

func (s *commonSteps) fieldShouldBe(_ context.Context, field, want string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	var got string
	switch x := v.(type) {
	case string:
		got = x
	case float64:
		got = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		got = strconv.FormatBool(x)
	default:
		got = fmt.Sprint(x)
	}
	if got != want {
		return fmt.Errorf("expected %s to be %q, got %q", field, want, got)
	}
	return nil
}
