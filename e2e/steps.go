package e2e

import (
	"github.com/cucumber/godog"

	"treasury/e2e/steps/common"
	"treasury/e2e/steps/expenditure"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Background, generic assertions
	common.RegisterSteps(ctx, tc)

	// Expenditure lifecycle, funding and claims
	expenditure.RegisterSteps(ctx, tc)
}
