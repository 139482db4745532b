package service

import (
	"context"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
)

func (s *Service) GetExpenditure(ctx context.Context, expID id.ExpenditureID) (*models.Expenditure, error) {
	var exp *models.Expenditure
	err := s.view(ctx, "get_expenditure", func(ctx context.Context, stores Stores) error {
		var err error
		exp, err = getExpenditure(ctx, stores, expID)
		return err
	})
	return exp, err
}

func (s *Service) GetExpenditureCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.view(ctx, "count_expenditures", func(ctx context.Context, stores Stores) error {
		var err error
		n, err = stores.Expenditures().Count(ctx)
		return wrapRead(err, "failed to count expenditures")
	})
	return n, err
}

// GetFundingPot returns the pot with every asset it has ever held.
func (s *Service) GetFundingPot(ctx context.Context, potID id.FundingPotID) (*models.FundingPotDetails, error) {
	var details *models.FundingPotDetails
	err := s.view(ctx, "get_funding_pot", func(ctx context.Context, stores Stores) error {
		pot, err := stores.Pots().Get(ctx, potID)
		if err != nil {
			return translateLookup(err, "funding pot", potID.String())
		}
		rows, err := stores.Pots().Balances(ctx, potID)
		if err != nil {
			return wrapRead(err, "failed to read pot balances")
		}
		details = &models.FundingPotDetails{FundingPot: *pot, Assets: rows}
		return nil
	})
	return details, err
}

func (s *Service) GetFundingPotCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.view(ctx, "count_funding_pots", func(ctx context.Context, stores Stores) error {
		var err error
		n, err = stores.Pots().Count(ctx)
		return wrapRead(err, "failed to count funding pots")
	})
	return n, err
}

// GetFundingPotPayout is the committed payout total of pot in asset.
func (s *Service) GetFundingPotPayout(ctx context.Context, potID id.FundingPotID, asset id.Address) (id.Amount, error) {
	view, err := s.GetFundingPotAsset(ctx, potID, asset)
	if err != nil {
		return id.Zero(), err
	}
	return view.Committed, nil
}

func (s *Service) GetFundingPotBalance(ctx context.Context, potID id.FundingPotID, asset id.Address) (id.Amount, error) {
	view, err := s.GetFundingPotAsset(ctx, potID, asset)
	if err != nil {
		return id.Zero(), err
	}
	return view.Balance, nil
}

// GetFundingPotAsset reads balance, committed total and funded flag of one
// pot asset. Assets the pot never held read as zero.
func (s *Service) GetFundingPotAsset(ctx context.Context, potID id.FundingPotID, asset id.Address) (*models.FundingPotAsset, error) {
	var view *models.FundingPotAsset
	err := s.view(ctx, "get_funding_pot_asset", func(ctx context.Context, stores Stores) error {
		if _, err := stores.Pots().Get(ctx, potID); err != nil {
			return translateLookup(err, "funding pot", potID.String())
		}
		balance, err := stores.Pots().Balance(ctx, potID, asset)
		if err != nil {
			return wrapRead(err, "failed to read pot balance")
		}
		committed, err := stores.Pots().CommittedTotal(ctx, potID, asset)
		if err != nil {
			return wrapRead(err, "failed to read committed total")
		}
		funded, err := stores.Pots().IsFunded(ctx, potID, asset)
		if err != nil {
			return wrapRead(err, "failed to read funding state")
		}
		view = &models.FundingPotAsset{
			FundingPotID: potID,
			PotAsset:     models.PotAsset{Asset: asset, Balance: balance, Committed: committed},
			Funded:       funded,
		}
		return nil
	})
	return view, err
}

// GetExpenditureRecipient returns an empty record for unknown recipients of
// a known expenditure.
func (s *Service) GetExpenditureRecipient(ctx context.Context, expID id.ExpenditureID, recipient id.Address) (*models.Recipient, error) {
	var rec *models.Recipient
	err := s.view(ctx, "get_recipient", func(ctx context.Context, stores Stores) error {
		if _, err := getExpenditure(ctx, stores, expID); err != nil {
			return err
		}
		var err error
		rec, err = stores.Payouts().Recipient(ctx, expID, recipient)
		return wrapRead(err, "failed to read recipient")
	})
	return rec, err
}

func (s *Service) GetExpenditurePayout(ctx context.Context, expID id.ExpenditureID, recipient, asset id.Address) (id.Amount, error) {
	amount := id.Zero()
	err := s.view(ctx, "get_payout", func(ctx context.Context, stores Stores) error {
		if _, err := getExpenditure(ctx, stores, expID); err != nil {
			return err
		}
		var err error
		amount, err = stores.Payouts().Get(ctx, expID, recipient, asset)
		return wrapRead(err, "failed to read payout")
	})
	return amount, err
}

// GetExpenditureAssetTotal sums every recipient's payout in asset.
func (s *Service) GetExpenditureAssetTotal(ctx context.Context, expID id.ExpenditureID, asset id.Address) (id.Amount, error) {
	total := id.Zero()
	err := s.view(ctx, "get_asset_total", func(ctx context.Context, stores Stores) error {
		if _, err := getExpenditure(ctx, stores, expID); err != nil {
			return err
		}
		var err error
		total, err = stores.Payouts().TotalForAsset(ctx, expID, asset)
		return wrapRead(err, "failed to sum payouts")
	})
	return total, err
}

func (s *Service) GetAssetBalance(ctx context.Context, asset, account id.Address) (id.Amount, error) {
	balance := id.Zero()
	err := s.view(ctx, "get_asset_balance", func(ctx context.Context, stores Stores) error {
		var err error
		balance, err = stores.Assets().Balance(ctx, asset, account)
		return wrapRead(err, "failed to read asset balance")
	})
	return balance, err
}

func (s *Service) view(ctx context.Context, operation string, fn func(ctx context.Context, stores Stores) error) error {
	return s.run(ctx, operation, "", func(ctx context.Context) error {
		return s.tx.View(ctx, fn)
	})
}

func getExpenditure(ctx context.Context, stores Stores, expID id.ExpenditureID) (*models.Expenditure, error) {
	exp, err := stores.Expenditures().Get(ctx, expID)
	if err != nil {
		return nil, translateLookup(err, "expenditure", expID.String())
	}
	return exp, nil
}

func wrapRead(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
