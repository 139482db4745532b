package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
)

type payouts struct{ *view }

func (p payouts) Get(ctx context.Context, expID id.ExpenditureID, recipient, asset id.Address) (id.Amount, error) {
	return p.read(ctx, expID, recipient, asset, "")
}

func (p payouts) read(ctx context.Context, expID id.ExpenditureID, recipient, asset id.Address, lock string) (id.Amount, error) {
	var amount id.Amount
	err := p.q.QueryRowContext(ctx, `
		SELECT amount FROM expenditure_payouts
		WHERE expenditure_id = $1 AND recipient = $2 AND asset = $3`+lock,
		int64(expID), recipient.String(), asset.String(),
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return id.Zero(), nil
	}
	if err != nil {
		return id.Zero(), fmt.Errorf("read payout: %w", err)
	}
	return amount, nil
}

func (p payouts) Set(ctx context.Context, expID id.ExpenditureID, recipient, asset id.Address, amount id.Amount) (id.Amount, error) {
	prev, err := p.read(ctx, expID, recipient, asset, p.lockClause())
	if err != nil {
		return id.Zero(), err
	}
	_, err = p.q.ExecContext(ctx, `
		INSERT INTO expenditure_payouts (expenditure_id, recipient, asset, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (expenditure_id, recipient, asset) DO UPDATE SET amount = EXCLUDED.amount
	`, int64(expID), recipient.String(), asset.String(), amount)
	if err != nil {
		return id.Zero(), translate(err, "write payout")
	}
	return amount.Sub(prev), nil
}

func (p payouts) TotalForAsset(ctx context.Context, expID id.ExpenditureID, asset id.Address) (id.Amount, error) {
	var total id.Amount
	err := p.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenditure_payouts
		WHERE expenditure_id = $1 AND asset = $2
	`, int64(expID), asset.String()).Scan(&total)
	if err != nil {
		return id.Zero(), fmt.Errorf("sum payouts: %w", err)
	}
	return total, nil
}

func (p payouts) Recipient(ctx context.Context, expID id.ExpenditureID, recipient id.Address) (*models.Recipient, error) {
	rec := &models.Recipient{Account: recipient}

	var skills []int64
	err := p.q.QueryRowContext(ctx, `
		SELECT skills FROM expenditure_recipients WHERE expenditure_id = $1 AND recipient = $2
	`, int64(expID), recipient.String()).Scan(pq.Array(&skills))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read recipient skills: %w", err)
	}
	for _, s := range skills {
		rec.Skills = append(rec.Skills, id.SkillID(s))
	}

	rows, err := p.q.QueryContext(ctx, `
		SELECT asset, amount FROM expenditure_payouts
		WHERE expenditure_id = $1 AND recipient = $2 AND amount > 0
		ORDER BY asset
	`, int64(expID), recipient.String())
	if err != nil {
		return nil, fmt.Errorf("list recipient payouts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			asset  string
			payout models.Payout
		)
		if err := rows.Scan(&asset, &payout.Amount); err != nil {
			return nil, fmt.Errorf("scan recipient payout: %w", err)
		}
		payout.Asset = id.Address(asset)
		rec.Payouts = append(rec.Payouts, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipient payouts: %w", err)
	}
	return rec, nil
}

// AddSkill appends skill unless the recipient already has it.
func (p payouts) AddSkill(ctx context.Context, expID id.ExpenditureID, recipient id.Address, skill id.SkillID) error {
	_, err := p.q.ExecContext(ctx, `
		INSERT INTO expenditure_recipients (expenditure_id, recipient, skills)
		VALUES ($1, $2, $3)
		ON CONFLICT (expenditure_id, recipient) DO UPDATE
			SET skills = array_append(expenditure_recipients.skills, $4::bigint)
			WHERE NOT ($4::bigint = ANY (expenditure_recipients.skills))
	`, int64(expID), recipient.String(), pq.Array([]int64{int64(skill)}), int64(skill))
	return translate(err, "add recipient skill")
}
