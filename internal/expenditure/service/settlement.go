package service

import (
	"context"
	"errors"
	"math/big"

	"go.opentelemetry.io/otel/attribute"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/sentinel"
)

// ClaimExpenditure pays recipient's payout in asset from a finalized
// expenditure. Anyone may trigger it; funds only ever go to the recipient and
// the network treasury. The network fee is payout/feeInverse, truncated. A
// zero payout, including one already claimed, succeeds without effects.
func (s *Service) ClaimExpenditure(ctx context.Context, expID id.ExpenditureID, recipient, asset id.Address, caller id.Address) (*models.ClaimResult, error) {
	var result *models.ClaimResult
	err := s.run(ctx, "claim", caller, func(ctx context.Context) error {
		if recipient.IsNil() || asset.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "recipient and asset are required")
		}
		return s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
			exp, err := loadForUpdate(ctx, stores, expID)
			if err != nil {
				return err
			}
			if err := requireFinalized(exp); err != nil {
				return err
			}
			payout, err := stores.Payouts().Get(ctx, expID, recipient, asset)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read payout")
			}
			result = &models.ClaimResult{ExpenditureID: expID, Recipient: recipient, Asset: asset}
			if payout.IsZero() {
				return nil
			}

			fee, net := models.SplitFee(payout, s.network.FeeInverse())
			org := s.network.OrganizationAccount()
			if err := transfer(ctx, stores, asset, org, recipient, net); err != nil {
				return err
			}
			if err := transfer(ctx, stores, asset, org, s.network.TreasuryAccount(), fee); err != nil {
				return err
			}

			delta, err := stores.Payouts().Set(ctx, expID, recipient, asset, id.Zero())
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear payout")
			}
			if err := adjustCommitted(ctx, stores, exp.FundingPotID, asset, delta); err != nil {
				return err
			}
			if err := stores.Pots().Debit(ctx, exp.FundingPotID, asset, payout); err != nil {
				if errors.Is(err, sentinel.ErrInsufficient) {
					return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "finalized funding pot cannot cover its payout")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit funding pot")
			}

			result.Payout, result.Fee, result.Net = payout, fee, net
			return s.logAudit(ctx, audit.EventPayoutClaimed, caller, expenditureSubject(expID),
				"recipient", recipient,
				"asset", asset,
				"payout", payout,
				"fee", fee,
				"net", net,
			)
		})
	}, expenditureAttr(expID), attribute.String("asset", asset.String()))
	if err != nil {
		return nil, err
	}
	if !result.Payout.IsZero() {
		fee, _ := new(big.Float).SetInt(result.Fee.Big()).Float64()
		s.metrics.RecordClaim(asset.String(), fee)
	}
	return result, nil
}

func transfer(ctx context.Context, stores Stores, asset, from, to id.Address, amount id.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if err := stores.Assets().Transfer(ctx, asset, from, to, amount); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			return dErrors.Wrap(err, dErrors.CodeTransferFailure, "asset transfer to "+to.String()+" failed")
		}
		return dErrors.Wrap(err, dErrors.CodeTransferFailure, "asset transfer failed")
	}
	return nil
}
