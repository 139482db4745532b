package service

import (
	"context"
	"errors"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	"treasury/pkg/platform/sentinel"
)

// Guards run at the top of every mutation, ownership before status.

func requireOwner(exp *models.Expenditure, caller id.Address) error {
	if !exp.IsOwnedBy(caller) {
		return dErrors.Newf(dErrors.CodeNotOwner, "caller is not the owner of expenditure %s", exp.ID)
	}
	return nil
}

func requireActive(exp *models.Expenditure) error {
	if !exp.IsActive() {
		return dErrors.Newf(dErrors.CodeNotActive, "expenditure %s is %s", exp.ID, exp.Status)
	}
	return nil
}

func requireFinalized(exp *models.Expenditure) error {
	if !exp.IsFinalized() {
		return dErrors.Newf(dErrors.CodeNotFinalized, "expenditure %s is %s", exp.ID, exp.Status)
	}
	return nil
}

func requireCaller(caller id.Address) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthenticated, "caller is required")
	}
	return nil
}

func (s *Service) requireAdministrator(ctx context.Context, domain id.DomainID, caller id.Address) error {
	ok, err := s.authz.AuthorizeAdministration(ctx, domain, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate administration role")
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller does not administer domain %s", domain)
	}
	return nil
}

// loadForUpdate reads and locks the expenditure row for the rest of the unit
// of work.
func loadForUpdate(ctx context.Context, stores Stores, expID id.ExpenditureID) (*models.Expenditure, error) {
	exp, err := stores.Expenditures().GetForUpdate(ctx, expID)
	if err != nil {
		return nil, translateLookup(err, "expenditure", expID.String())
	}
	return exp, nil
}

// loadMutable loads the expenditure and applies the owner and active guards.
func loadMutable(ctx context.Context, stores Stores, expID id.ExpenditureID, caller id.Address) (*models.Expenditure, error) {
	exp, err := loadForUpdate(ctx, stores, expID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(exp, caller); err != nil {
		return nil, err
	}
	if err := requireActive(exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// translateLedger maps a refused credit onto a validation error; anything
// else is internal.
func translateLedger(err error, msg string) error {
	if errors.Is(err, sentinel.ErrOverflow) {
		return dErrors.Wrap(err, dErrors.CodeValidation, msg+": total would exceed 2^256-1")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func translateLookup(err error, kind, key string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", kind, key)
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+kind)
}

func requirePositive(amount id.Amount) error {
	if amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func requireNonNegative(amount id.Amount) error {
	if amount.Sign() < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount cannot be negative")
	}
	return nil
}
