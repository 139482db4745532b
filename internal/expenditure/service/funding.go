package service

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/sentinel"
)

// DepositFunds brings amount of asset into the organization and credits the
// domain's pot, allocating the pot on first use.
func (s *Service) DepositFunds(ctx context.Context, domain id.DomainID, asset id.Address, amount id.Amount, caller id.Address) (*models.FundingPotDetails, error) {
	var details *models.FundingPotDetails
	err := s.run(ctx, "deposit", caller, func(ctx context.Context) error {
		if domain.IsNil() || asset.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "domain and asset are required")
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		if err := s.requireAdministrator(ctx, domain, caller); err != nil {
			return err
		}
		return s.inDomainPotTx(ctx, func(ctx context.Context, stores Stores) error {
			pot, err := s.ensureDomainPot(ctx, stores, domain)
			if err != nil {
				return err
			}
			if err := stores.Assets().Credit(ctx, asset, s.network.OrganizationAccount(), amount); err != nil {
				return translateLedger(err, "failed to credit organization account")
			}
			if err := stores.Pots().Credit(ctx, pot.ID, asset, amount); err != nil {
				return translateLedger(err, "failed to credit domain pot")
			}
			rows, err := stores.Pots().Balances(ctx, pot.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pot balances")
			}
			details = &models.FundingPotDetails{FundingPot: *pot, Assets: rows}
			return s.logAudit(ctx, audit.EventFundsDeposited, caller, domainSubject(domain),
				"funding_pot_id", pot.ID,
				"asset", asset,
				"amount", amount,
			)
		})
	}, attribute.Int64("domain_id", int64(domain)), attribute.String("asset", asset.String()))
	if err != nil {
		return nil, err
	}
	return details, nil
}

// MoveFundsBetweenPots moves amount of asset from one pot to another. The
// caller must administer the domain owning the source pot. A finalized
// expenditure pot keeps at least its committed total, and only active
// expenditures accept funds.
func (s *Service) MoveFundsBetweenPots(ctx context.Context, from, to id.FundingPotID, asset id.Address, amount id.Amount, caller id.Address) error {
	return s.run(ctx, "move_funds", caller, func(ctx context.Context) error {
		if from.IsNil() || to.IsNil() || asset.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "source, destination and asset are required")
		}
		if from == to {
			return dErrors.New(dErrors.CodeValidation, "source and destination pots must differ")
		}
		if err := requirePositive(amount); err != nil {
			return err
		}
		return s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
			src, dst, err := resolvePots(ctx, stores, from, to)
			if err != nil {
				return err
			}
			if err := s.requireAdministrator(ctx, src.domain, caller); err != nil {
				return err
			}
			if dst.expenditure != nil {
				if err := requireActive(dst.expenditure); err != nil {
					return err
				}
			}
			if src.expenditure != nil && src.expenditure.IsFinalized() {
				if err := keepsCommitment(ctx, stores, from, asset, amount); err != nil {
					return err
				}
			}

			// Touch rows in ascending pot order so concurrent moves lock
			// consistently.
			if from < to {
				err = debitThenCredit(ctx, stores, from, to, asset, amount)
			} else {
				err = creditThenDebit(ctx, stores, from, to, asset, amount)
			}
			if err != nil {
				return err
			}
			return s.logAudit(ctx, audit.EventFundsMoved, caller, potSubject(from),
				"from_pot_id", from,
				"to_pot_id", to,
				"asset", asset,
				"amount", amount,
			)
		})
	}, attribute.Int64("from_pot_id", int64(from)), attribute.Int64("to_pot_id", int64(to)))
}

type resolvedPot struct {
	pot         *models.FundingPot
	domain      id.DomainID
	expenditure *models.Expenditure
}

// resolvePots loads both pots and the domains they answer to. Expenditure
// pots answer to the expenditure's domain; those expenditure rows are locked
// in ascending id order so opposite-direction moves cannot deadlock.
func resolvePots(ctx context.Context, stores Stores, from, to id.FundingPotID) (*resolvedPot, *resolvedPot, error) {
	src, err := loadPot(ctx, stores, from)
	if err != nil {
		return nil, nil, err
	}
	dst, err := loadPot(ctx, stores, to)
	if err != nil {
		return nil, nil, err
	}

	owned := make([]*resolvedPot, 0, 2)
	for _, r := range []*resolvedPot{src, dst} {
		if r.pot.AssociatedType == models.AssociationExpenditure {
			owned = append(owned, r)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].pot.AssociatedID < owned[j].pot.AssociatedID
	})
	for _, r := range owned {
		exp, err := loadForUpdate(ctx, stores, id.ExpenditureID(r.pot.AssociatedID))
		if err != nil {
			return nil, nil, err
		}
		r.domain = exp.DomainID
		r.expenditure = exp
	}
	return src, dst, nil
}

// loadPot reads a pot without locking anything. A pot's association never
// changes after allocation.
func loadPot(ctx context.Context, stores Stores, potID id.FundingPotID) (*resolvedPot, error) {
	pot, err := stores.Pots().Get(ctx, potID)
	if err != nil {
		return nil, translateLookup(err, "funding pot", potID.String())
	}
	switch pot.AssociatedType {
	case models.AssociationDomain:
		return &resolvedPot{pot: pot, domain: id.DomainID(pot.AssociatedID)}, nil
	case models.AssociationExpenditure:
		return &resolvedPot{pot: pot}, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "funding pot %s has unknown association %q", potID, pot.AssociatedType)
	}
}

func keepsCommitment(ctx context.Context, stores Stores, pot id.FundingPotID, asset id.Address, amount id.Amount) error {
	balance, err := stores.Pots().Balance(ctx, pot, asset)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pot balance")
	}
	committed, err := stores.Pots().CommittedTotal(ctx, pot, asset)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read committed total")
	}
	if balance.Sub(amount).Cmp(committed) < 0 {
		return dErrors.Newf(dErrors.CodeInsufficientFunding,
			"funding pot %s must keep %s of asset %s for finalized payouts", pot, committed, asset)
	}
	return nil
}

func debitThenCredit(ctx context.Context, stores Stores, from, to id.FundingPotID, asset id.Address, amount id.Amount) error {
	if err := debitPot(ctx, stores, from, asset, amount); err != nil {
		return err
	}
	return creditPot(ctx, stores, to, asset, amount)
}

func creditThenDebit(ctx context.Context, stores Stores, from, to id.FundingPotID, asset id.Address, amount id.Amount) error {
	if err := creditPot(ctx, stores, to, asset, amount); err != nil {
		return err
	}
	return debitPot(ctx, stores, from, asset, amount)
}

func debitPot(ctx context.Context, stores Stores, pot id.FundingPotID, asset id.Address, amount id.Amount) error {
	if err := stores.Pots().Debit(ctx, pot, asset, amount); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			return dErrors.Newf(dErrors.CodeInsufficientFunding, "funding pot %s cannot cover %s of asset %s", pot, amount, asset)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit funding pot")
	}
	return nil
}

func creditPot(ctx context.Context, stores Stores, pot id.FundingPotID, asset id.Address, amount id.Amount) error {
	if err := stores.Pots().Credit(ctx, pot, asset, amount); err != nil {
		return translateLedger(err, "failed to credit funding pot")
	}
	return nil
}
