package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	"treasury/pkg/platform/sentinel"
)

type pots struct{ *view }

func (p pots) NextID(ctx context.Context) (id.FundingPotID, error) {
	v, err := p.nextValue(ctx, "funding_pots")
	return id.FundingPotID(v), err
}

func (p pots) Create(ctx context.Context, pot *models.FundingPot) error {
	_, err := p.q.ExecContext(ctx, `
		INSERT INTO funding_pots (id, associated_type, associated_id)
		VALUES ($1, $2, $3)
	`, int64(pot.ID), string(pot.AssociatedType), int64(pot.AssociatedID))
	return translate(err, "create funding pot")
}

func (p pots) Get(ctx context.Context, potID id.FundingPotID) (*models.FundingPot, error) {
	row := p.q.QueryRowContext(ctx, `
		SELECT id, associated_type, associated_id FROM funding_pots WHERE id = $1
	`, int64(potID))
	pot, err := scanPot(row)
	if err != nil {
		return nil, translate(err, "get funding pot")
	}
	return pot, nil
}

func (p pots) FindByAssociation(ctx context.Context, kind models.AssociationType, associatedID uint64) (*models.FundingPot, error) {
	row := p.q.QueryRowContext(ctx, `
		SELECT id, associated_type, associated_id FROM funding_pots
		WHERE associated_type = $1 AND associated_id = $2
	`, string(kind), int64(associatedID))
	pot, err := scanPot(row)
	if err != nil {
		return nil, translate(err, "find funding pot")
	}
	return pot, nil
}

// lockPot takes the pot row lock that serializes writes to its asset rows,
// including rows that do not exist yet.
func (p pots) lockPot(ctx context.Context, potID id.FundingPotID) error {
	var got int64
	err := p.q.QueryRowContext(ctx, `SELECT id FROM funding_pots WHERE id = $1`+p.lockClause(), int64(potID)).Scan(&got)
	return translate(err, "lock funding pot")
}

func (p pots) row(ctx context.Context, potID id.FundingPotID, asset id.Address) (models.PotAsset, error) {
	row := models.PotAsset{Asset: asset}
	err := p.q.QueryRowContext(ctx, `
		SELECT balance, committed FROM funding_pot_assets WHERE pot_id = $1 AND asset = $2
	`, int64(potID), asset.String()).Scan(&row.Balance, &row.Committed)
	if errors.Is(err, sql.ErrNoRows) {
		return row, nil
	}
	if err != nil {
		return row, fmt.Errorf("read funding pot asset: %w", err)
	}
	return row, nil
}

// update locks the pot, applies fn to the current asset row and writes it
// back.
func (p pots) update(ctx context.Context, potID id.FundingPotID, asset id.Address, fn func(row *models.PotAsset) error) error {
	if err := p.lockPot(ctx, potID); err != nil {
		return err
	}
	row, err := p.row(ctx, potID, asset)
	if err != nil {
		return err
	}
	if err := fn(&row); err != nil {
		return err
	}
	_, err = p.q.ExecContext(ctx, `
		INSERT INTO funding_pot_assets (pot_id, asset, balance, committed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pot_id, asset) DO UPDATE SET
			balance = EXCLUDED.balance,
			committed = EXCLUDED.committed
	`, int64(potID), asset.String(), row.Balance, row.Committed)
	return translate(err, "write funding pot asset")
}

func (p pots) Credit(ctx context.Context, potID id.FundingPotID, asset id.Address, amount id.Amount) error {
	return p.update(ctx, potID, asset, func(row *models.PotAsset) error {
		next := row.Balance.Add(amount)
		if next.Overflows() {
			return sentinel.ErrOverflow
		}
		row.Balance = next
		return nil
	})
}

func (p pots) Debit(ctx context.Context, potID id.FundingPotID, asset id.Address, amount id.Amount) error {
	return p.update(ctx, potID, asset, func(row *models.PotAsset) error {
		if row.Balance.Cmp(amount) < 0 {
			return sentinel.ErrInsufficient
		}
		row.Balance = row.Balance.Sub(amount)
		return nil
	})
}

func (p pots) AdjustCommitted(ctx context.Context, potID id.FundingPotID, asset id.Address, delta id.Amount) error {
	return p.update(ctx, potID, asset, func(row *models.PotAsset) error {
		next := row.Committed.Add(delta)
		if next.Sign() < 0 {
			return sentinel.ErrNegativeTotal
		}
		if next.Overflows() {
			return sentinel.ErrOverflow
		}
		row.Committed = next
		return nil
	})
}

func (p pots) Balance(ctx context.Context, potID id.FundingPotID, asset id.Address) (id.Amount, error) {
	row, err := p.row(ctx, potID, asset)
	return row.Balance, err
}

func (p pots) CommittedTotal(ctx context.Context, potID id.FundingPotID, asset id.Address) (id.Amount, error) {
	row, err := p.row(ctx, potID, asset)
	return row.Committed, err
}

func (p pots) IsFunded(ctx context.Context, potID id.FundingPotID, asset id.Address) (bool, error) {
	row, err := p.row(ctx, potID, asset)
	if err != nil {
		return false, err
	}
	return row.IsFunded(), nil
}

func (p pots) Balances(ctx context.Context, potID id.FundingPotID) ([]models.PotAsset, error) {
	if p.forUpdate {
		if err := p.lockPot(ctx, potID); err != nil {
			return nil, err
		}
	}
	rows, err := p.q.QueryContext(ctx, `
		SELECT asset, balance, committed FROM funding_pot_assets
		WHERE pot_id = $1
		ORDER BY asset`+p.lockClause(), int64(potID))
	if err != nil {
		return nil, fmt.Errorf("list funding pot assets: %w", err)
	}
	defer rows.Close()

	var out []models.PotAsset
	for rows.Next() {
		var (
			asset string
			row   models.PotAsset
		)
		if err := rows.Scan(&asset, &row.Balance, &row.Committed); err != nil {
			return nil, fmt.Errorf("scan funding pot asset: %w", err)
		}
		row.Asset = id.Address(asset)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funding pot assets: %w", err)
	}
	return out, nil
}

func (p pots) Count(ctx context.Context) (uint64, error) {
	var n int64
	if err := p.q.QueryRowContext(ctx, `SELECT count(*) FROM funding_pots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count funding pots: %w", err)
	}
	return uint64(n), nil
}

func scanPot(row *sql.Row) (*models.FundingPot, error) {
	var (
		potID, associatedID int64
		kind                string
	)
	if err := row.Scan(&potID, &kind, &associatedID); err != nil {
		return nil, err
	}
	return &models.FundingPot{
		ID:             id.FundingPotID(potID),
		AssociatedType: models.AssociationType(kind),
		AssociatedID:   uint64(associatedID),
	}, nil
}
