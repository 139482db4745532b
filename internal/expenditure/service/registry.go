package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/sentinel"
	"treasury/pkg/requestcontext"
)

// CreateExpenditure allocates an active expenditure owned by caller together
// with its funding pot. Caller must administer domain.
func (s *Service) CreateExpenditure(ctx context.Context, domain id.DomainID, caller id.Address) (*models.Expenditure, error) {
	var created *models.Expenditure
	err := s.run(ctx, "create", caller, func(ctx context.Context) error {
		if err := requireCaller(caller); err != nil {
			return err
		}
		if domain.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "domain id is required")
		}
		if err := s.requireAdministrator(ctx, domain, caller); err != nil {
			return err
		}
		return s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
			expID, err := stores.Expenditures().NextID(ctx)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate expenditure id")
			}
			potID, err := stores.Pots().NextID(ctx)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate funding pot id")
			}
			pot := &models.FundingPot{
				ID:             potID,
				AssociatedType: models.AssociationExpenditure,
				AssociatedID:   uint64(expID),
			}
			if err := stores.Pots().Create(ctx, pot); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create funding pot")
			}
			exp, err := models.NewExpenditure(expID, domain, potID, caller, requestcontext.Now(ctx))
			if err != nil {
				return err
			}
			if err := stores.Expenditures().Create(ctx, exp); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create expenditure")
			}
			created = exp
			return s.logAudit(ctx, audit.EventExpenditureCreated, caller, expenditureSubject(expID),
				"domain_id", domain,
				"funding_pot_id", potID,
			)
		})
	}, attribute.Int64("domain_id", int64(domain)))
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition(string(models.StatusActive))
	return created, nil
}

// CancelExpenditure moves an active expenditure to Cancelled.
func (s *Service) CancelExpenditure(ctx context.Context, expID id.ExpenditureID, caller id.Address) (*models.Expenditure, error) {
	var updated *models.Expenditure
	err := s.run(ctx, "cancel", caller, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
			exp, err := loadMutable(ctx, stores, expID, caller)
			if err != nil {
				return err
			}
			if err := exp.Cancel(); err != nil {
				return err
			}
			if err := stores.Expenditures().Update(ctx, exp); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel expenditure")
			}
			updated = exp
			return s.logAudit(ctx, audit.EventExpenditureCancelled, caller, expenditureSubject(expID))
		})
	}, expenditureAttr(expID))
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition(string(models.StatusCancelled))
	return updated, nil
}

// TransferExpenditure hands ownership to newOwner. Only the current owner may
// do so; the status is not checked.
func (s *Service) TransferExpenditure(ctx context.Context, expID id.ExpenditureID, newOwner, caller id.Address) (*models.Expenditure, error) {
	var updated *models.Expenditure
	err := s.run(ctx, "transfer", caller, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
			exp, err := loadForUpdate(ctx, stores, expID)
			if err != nil {
				return err
			}
			if err := requireOwner(exp, caller); err != nil {
				return err
			}
			if err := exp.TransferTo(newOwner); err != nil {
				return err
			}
			if err := stores.Expenditures().Update(ctx, exp); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer expenditure")
			}
			updated = exp
			return s.logAudit(ctx, audit.EventExpenditureTransferred, caller, expenditureSubject(expID),
				"previous_owner", caller,
				"new_owner", newOwner,
				"status", exp.Status,
			)
		})
	}, expenditureAttr(expID))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetExpenditureSkill adds skill to recipient's skill set. NoSkill is
// accepted and leaves the set untouched, as does a skill already present.
func (s *Service) SetExpenditureSkill(ctx context.Context, expID id.ExpenditureID, recipient id.Address, skill id.SkillID, caller id.Address) (*models.Recipient, error) {
	var result *models.Recipient
	err := s.run(ctx, "set_skill", caller, func(ctx context.Context) error {
		if recipient.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "recipient is required")
		}
		return s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
			if _, err := loadMutable(ctx, stores, expID, caller); err != nil {
				return err
			}
			current, err := stores.Payouts().Recipient(ctx, expID, recipient)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load recipient")
			}
			if skill == id.NoSkill || current.HasSkill(skill) {
				result = current
				return nil
			}
			if err := s.checkSkill(ctx, skill); err != nil {
				return err
			}
			if len(current.Skills) >= s.maxRecipientSkills {
				return dErrors.Newf(dErrors.CodeValidation, "recipient already has the maximum of %d skills", s.maxRecipientSkills)
			}
			if err := stores.Payouts().AddSkill(ctx, expID, recipient, skill); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add recipient skill")
			}
			current.Skills = append(current.Skills, skill)
			result = current
			return s.logAudit(ctx, audit.EventRecipientSkillSet, caller, expenditureSubject(expID),
				"recipient", recipient,
				"skill_id", skill,
			)
		})
	}, expenditureAttr(expID), attribute.Int64("skill_id", int64(skill)))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) checkSkill(ctx context.Context, skill id.SkillID) error {
	deprecated, err := s.skills.IsSkillDeprecated(ctx, skill)
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return err
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "skill %s not found", skill)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up skill")
	}
	if deprecated {
		return dErrors.Newf(dErrors.CodeDeprecatedSkill, "skill %s is deprecated", skill)
	}
	return nil
}

// SetExpenditurePayout sets recipient's payout in asset to amount and moves
// the pot's committed total by the difference. Zero clears the payout.
func (s *Service) SetExpenditurePayout(ctx context.Context, expID id.ExpenditureID, recipient, asset id.Address, amount id.Amount, caller id.Address) error {
	return s.run(ctx, "set_payout", caller, func(ctx context.Context) error {
		if recipient.IsNil() || asset.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "recipient and asset are required")
		}
		if err := requireNonNegative(amount); err != nil {
			return err
		}
		return s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
			exp, err := loadMutable(ctx, stores, expID, caller)
			if err != nil {
				return err
			}
			delta, err := stores.Payouts().Set(ctx, expID, recipient, asset, amount)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set payout")
			}
			if err := adjustCommitted(ctx, stores, exp.FundingPotID, asset, delta); err != nil {
				return err
			}
			return s.logAudit(ctx, audit.EventPayoutSet, caller, expenditureSubject(expID),
				"recipient", recipient,
				"asset", asset,
				"amount", amount,
				"delta", delta,
			)
		})
	}, expenditureAttr(expID), attribute.String("asset", asset.String()))
}

func adjustCommitted(ctx context.Context, stores Stores, pot id.FundingPotID, asset id.Address, delta id.Amount) error {
	if delta.IsZero() {
		return nil
	}
	if err := stores.Pots().AdjustCommitted(ctx, pot, asset, delta); err != nil {
		if errors.Is(err, sentinel.ErrNegativeTotal) {
			return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "committed payout total would become negative")
		}
		return translateLedger(err, "failed to adjust committed total")
	}
	return nil
}

// FinalizeExpenditure locks the payouts once the pot covers every committed
// asset total, and stamps the finalization time.
func (s *Service) FinalizeExpenditure(ctx context.Context, expID id.ExpenditureID, caller id.Address) (*models.Expenditure, error) {
	var updated *models.Expenditure
	err := s.run(ctx, "finalize", caller, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
			exp, err := loadMutable(ctx, stores, expID, caller)
			if err != nil {
				return err
			}
			rows, err := stores.Pots().Balances(ctx, exp.FundingPotID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pot balances")
			}
			for _, row := range rows {
				if row.Committed.IsZero() || row.IsFunded() {
					continue
				}
				return dErrors.Newf(dErrors.CodeInsufficientFunding,
					"funding pot %s is short %s of asset %s", exp.FundingPotID, row.Shortfall(), row.Asset)
			}
			if err := exp.Finalize(requestcontext.Now(ctx)); err != nil {
				return err
			}
			if err := stores.Expenditures().Update(ctx, exp); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize expenditure")
			}
			updated = exp
			return s.logAudit(ctx, audit.EventExpenditureFinalized, caller, expenditureSubject(expID),
				"funding_pot_id", exp.FundingPotID,
				"finalized_timestamp", exp.FinalizedTimestamp(),
			)
		})
	}, expenditureAttr(expID))
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition(string(models.StatusFinalized))
	return updated, nil
}

func expenditureAttr(expID id.ExpenditureID) attribute.KeyValue {
	return attribute.Int64("expenditure_id", int64(expID))
}
