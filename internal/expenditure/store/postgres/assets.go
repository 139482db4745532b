package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "treasury/pkg/domain"
	"treasury/pkg/platform/sentinel"
)

type assets struct{ *view }

// Credit upserts the balance. The conflict update is skipped when the sum
// would pass the largest storable amount, which surfaces as zero rows.
func (a assets) Credit(ctx context.Context, asset, account id.Address, amount id.Amount) error {
	res, err := a.q.ExecContext(ctx, `
		INSERT INTO asset_balances (asset, account, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset, account) DO UPDATE SET balance = asset_balances.balance + EXCLUDED.balance
		WHERE asset_balances.balance + EXCLUDED.balance <= $4
	`, asset.String(), account.String(), amount, id.MaxAmount())
	if err != nil {
		return translate(err, "credit asset balance")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit asset balance rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrOverflow
	}
	return nil
}

// Transfer debits from with a guarded update so the balance never goes
// negative, then credits to.
func (a assets) Transfer(ctx context.Context, asset, from, to id.Address, amount id.Amount) error {
	res, err := a.q.ExecContext(ctx, `
		UPDATE asset_balances SET balance = balance - $3
		WHERE asset = $1 AND account = $2 AND balance >= $3
	`, asset.String(), from.String(), amount)
	if err != nil {
		return translate(err, "debit asset balance")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit asset balance rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrInsufficient
	}
	return a.Credit(ctx, asset, to, amount)
}

func (a assets) Balance(ctx context.Context, asset, account id.Address) (id.Amount, error) {
	var balance id.Amount
	err := a.q.QueryRowContext(ctx, `
		SELECT balance FROM asset_balances WHERE asset = $1 AND account = $2
	`, asset.String(), account.String()).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return id.Zero(), nil
	}
	if err != nil {
		return id.Zero(), fmt.Errorf("read asset balance: %w", err)
	}
	return balance, nil
}
