package expenditure

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
	StatusCode() int
	ResponseField(field string) (any, error)
	Remember(key, value string)
	Recall(key string) string
}

// RegisterSteps registers expenditure lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &expenditureSteps{tc: tc}

	// Lifecycle
	ctx.Step(`^"([^"]*)" creates an expenditure in domain (\d+)$`, steps.createExpenditure)
	ctx.Step(`^"([^"]*)" cancels the expenditure$`, steps.cancelExpenditure)
	ctx.Step(`^"([^"]*)" finalizes the expenditure$`, steps.finalizeExpenditure)
	ctx.Step(`^"([^"]*)" transfers the expenditure to "([^"]*)"$`, steps.transferExpenditure)
	ctx.Step(`^"([^"]*)" sets a payout of "([^"]*)" in "([^"]*)" for "([^"]*)"$`, steps.setPayout)
	ctx.Step(`^"([^"]*)" gives "([^"]*)" skill (\d+)$`, steps.setSkill)

	// Funding
	ctx.Step(`^"([^"]*)" deposits "([^"]*)" of "([^"]*)" into domain (\d+)$`, steps.deposit)
	ctx.Step(`^"([^"]*)" moves "([^"]*)" of "([^"]*)" from domain (\d+) to the expenditure$`, steps.moveToExpenditure)

	// Claims
	ctx.Step(`^"([^"]*)" claims the "([^"]*)" payout of "([^"]*)"$`, steps.claim)

	// Assertions
	ctx.Step(`^the expenditure status should be "([^"]*)"$`, steps.statusShouldBe)
	ctx.Step(`^the expenditure should have a finalized timestamp$`, steps.shouldHaveTimestamp)
	ctx.Step(`^the "([^"]*)" payout of "([^"]*)" should be "([^"]*)"$`, steps.payoutShouldBe)
	ctx.Step(`^the "([^"]*)" balance of "([^"]*)" should be "([^"]*)"$`, steps.balanceShouldBe)
	ctx.Step(`^the expenditure pot should commit "([^"]*)" of "([^"]*)"$`, steps.potShouldCommit)
}

type expenditureSteps struct {
	tc TestContext
}

// Assets are namespaced per scenario so balances start from zero.
func (s *expenditureSteps) asset(name string) string { return s.tc.Account("asset-" + name) }

func (s *expenditureSteps) expenditurePath(suffix string) string {
	return "/expenditures/" + s.tc.Recall("expenditure_id") + suffix
}

func (s *expenditureSteps) expect(status int) error {
	if got := s.tc.StatusCode(); got != status {
		detail, _ := s.tc.ResponseField("error_description")
		return fmt.Errorf("expected status %d, got %d (%v)", status, got, detail)
	}
	return nil
}

func (s *expenditureSteps) field(name string) (string, error) {
	v, err := s.tc.ResponseField(name)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return fmt.Sprint(x), nil
	}
}

func (s *expenditureSteps) createExpenditure(ctx context.Context, who string, domain int) error {
	err := s.tc.Request(ctx, http.MethodPost, "/expenditures", s.tc.Account(who), map[string]any{"domain_id": domain})
	if err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusCreated {
		return nil
	}
	expID, err := s.field("id")
	if err != nil {
		return err
	}
	potID, err := s.field("funding_pot_id")
	if err != nil {
		return err
	}
	s.tc.Remember("expenditure_id", expID)
	s.tc.Remember("funding_pot_id", potID)
	return nil
}

func (s *expenditureSteps) cancelExpenditure(ctx context.Context, who string) error {
	return s.tc.Request(ctx, http.MethodPost, s.expenditurePath("/cancel"), s.tc.Account(who), nil)
}

func (s *expenditureSteps) finalizeExpenditure(ctx context.Context, who string) error {
	return s.tc.Request(ctx, http.MethodPost, s.expenditurePath("/finalize"), s.tc.Account(who), nil)
}

func (s *expenditureSteps) transferExpenditure(ctx context.Context, who, to string) error {
	return s.tc.Request(ctx, http.MethodPost, s.expenditurePath("/transfer"), s.tc.Account(who),
		map[string]any{"new_owner": s.tc.Account(to)})
}

func (s *expenditureSteps) setPayout(ctx context.Context, who, amount, asset, recipient string) error {
	path := s.expenditurePath("/recipients/" + s.tc.Account(recipient) + "/payouts/" + s.asset(asset))
	return s.tc.Request(ctx, http.MethodPut, path, s.tc.Account(who), map[string]any{"amount": amount})
}

func (s *expenditureSteps) setSkill(ctx context.Context, who, recipient string, skill int) error {
	path := s.expenditurePath("/recipients/" + s.tc.Account(recipient) + "/skills")
	return s.tc.Request(ctx, http.MethodPost, path, s.tc.Account(who), map[string]any{"skill_id": skill})
}

func (s *expenditureSteps) deposit(ctx context.Context, who, amount, asset string, domain int) error {
	path := fmt.Sprintf("/domains/%d/deposits", domain)
	err := s.tc.Request(ctx, http.MethodPost, path, s.tc.Account(who),
		map[string]any{"asset": s.asset(asset), "amount": amount})
	if err != nil {
		return err
	}
	if err := s.expect(http.StatusOK); err != nil {
		return err
	}
	potID, err := s.field("id")
	if err != nil {
		return err
	}
	s.tc.Remember(fmt.Sprintf("domain_pot:%d", domain), potID)
	return nil
}

func (s *expenditureSteps) moveToExpenditure(ctx context.Context, who, amount, asset string, domain int) error {
	from, err := strconv.ParseUint(s.tc.Recall(fmt.Sprintf("domain_pot:%d", domain)), 10, 64)
	if err != nil {
		return fmt.Errorf("domain %d has no known pot; deposit first", domain)
	}
	to, err := strconv.ParseUint(s.tc.Recall("funding_pot_id"), 10, 64)
	if err != nil {
		return fmt.Errorf("no expenditure created in this scenario")
	}
	return s.tc.Request(ctx, http.MethodPost, "/funding-pots/moves", s.tc.Account(who), map[string]any{
		"from_pot_id": from,
		"to_pot_id":   to,
		"asset":       s.asset(asset),
		"amount":      amount,
	})
}

func (s *expenditureSteps) claim(ctx context.Context, who, asset, recipient string) error {
	path := s.expenditurePath("/recipients/" + s.tc.Account(recipient) + "/payouts/" + s.asset(asset) + "/claim")
	return s.tc.Request(ctx, http.MethodPost, path, s.tc.Account(who), nil)
}

func (s *expenditureSteps) statusShouldBe(ctx context.Context, want string) error {
	if err := s.tc.Request(ctx, http.MethodGet, s.expenditurePath(""), s.tc.Account("observer"), nil); err != nil {
		return err
	}
	got, err := s.field("status")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected expenditure status %q, got %q", want, got)
	}
	return nil
}

func (s *expenditureSteps) shouldHaveTimestamp(ctx context.Context) error {
	if err := s.tc.Request(ctx, http.MethodGet, s.expenditurePath(""), s.tc.Account("observer"), nil); err != nil {
		return err
	}
	ts, err := s.field("finalized_timestamp")
	if err != nil {
		return err
	}
	if ts == "0" {
		return fmt.Errorf("finalized timestamp is zero")
	}
	return nil
}

func (s *expenditureSteps) payoutShouldBe(ctx context.Context, asset, recipient, want string) error {
	path := s.expenditurePath("/recipients/" + s.tc.Account(recipient) + "/payouts/" + s.asset(asset))
	if err := s.tc.Request(ctx, http.MethodGet, path, s.tc.Account("observer"), nil); err != nil {
		return err
	}
	return s.fieldEquals("amount", want)
}

func (s *expenditureSteps) balanceShouldBe(ctx context.Context, asset, account, want string) error {
	path := "/assets/" + s.asset(asset) + "/balances/" + s.tc.Account(account)
	if err := s.tc.Request(ctx, http.MethodGet, path, s.tc.Account("observer"), nil); err != nil {
		return err
	}
	return s.fieldEquals("balance", want)
}

func (s *expenditureSteps) potShouldCommit(ctx context.Context, want, asset string) error {
	path := "/funding-pots/" + s.tc.Recall("funding_pot_id") + "/assets/" + s.asset(asset)
	if err := s.tc.Request(ctx, http.MethodGet, path, s.tc.Account("observer"), nil); err != nil {
		return err
	}
	return s.fieldEquals("committed_payout_total", want)
}

func (s *expenditureSteps) fieldEquals(name, want string) error {
	if err := s.expect(http.StatusOK); err != nil {
		return err
	}
	got, err := s.field(name)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s %q, got %q", name, want, got)
	}
	return nil
}
