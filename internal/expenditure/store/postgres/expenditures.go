package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
)

type expenditures struct{ *view }

func (e expenditures) NextID(ctx context.Context) (id.ExpenditureID, error) {
	v, err := e.nextValue(ctx, "expenditures")
	return id.ExpenditureID(v), err
}

func (e expenditures) Create(ctx context.Context, exp *models.Expenditure) error {
	_, err := e.q.ExecContext(ctx, `
		INSERT INTO expenditures (id, domain_id, funding_pot_id, owner, status, finalized_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		int64(exp.ID),
		int64(exp.DomainID),
		int64(exp.FundingPotID),
		exp.Owner.String(),
		string(exp.Status),
		nullTime(exp),
		exp.CreatedAt,
	)
	return translate(err, "create expenditure")
}

func (e expenditures) Get(ctx context.Context, expID id.ExpenditureID) (*models.Expenditure, error) {
	return e.get(ctx, expID, "")
}

func (e expenditures) GetForUpdate(ctx context.Context, expID id.ExpenditureID) (*models.Expenditure, error) {
	return e.get(ctx, expID, e.lockClause())
}

func (e expenditures) get(ctx context.Context, expID id.ExpenditureID, lock string) (*models.Expenditure, error) {
	query := `
		SELECT id, domain_id, funding_pot_id, owner, status, finalized_at, created_at
		FROM expenditures
		WHERE id = $1` + lock
	exp, err := scanExpenditure(e.q.QueryRowContext(ctx, query, int64(expID)))
	if err != nil {
		return nil, translate(err, "get expenditure")
	}
	return exp, nil
}

func (e expenditures) Update(ctx context.Context, exp *models.Expenditure) error {
	res, err := e.q.ExecContext(ctx, `
		UPDATE expenditures
		SET owner = $2, status = $3, finalized_at = $4
		WHERE id = $1
	`, int64(exp.ID), exp.Owner.String(), string(exp.Status), nullTime(exp))
	if err != nil {
		return translate(err, "update expenditure")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expenditure rows affected: %w", err)
	}
	if rows == 0 {
		return translate(sql.ErrNoRows, "update expenditure")
	}
	return nil
}

func (e expenditures) Count(ctx context.Context) (uint64, error) {
	var n int64
	if err := e.q.QueryRowContext(ctx, `SELECT count(*) FROM expenditures`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenditures: %w", err)
	}
	return uint64(n), nil
}

func nullTime(exp *models.Expenditure) sql.NullTime {
	return sql.NullTime{Time: exp.FinalizedAt, Valid: !exp.FinalizedAt.IsZero()}
}

func scanExpenditure(row *sql.Row) (*models.Expenditure, error) {
	var (
		expID, domainID, potID int64
		owner, status          string
		finalizedAt            sql.NullTime
		exp                    models.Expenditure
	)
	if err := row.Scan(&expID, &domainID, &potID, &owner, &status, &finalizedAt, &exp.CreatedAt); err != nil {
		return nil, err
	}
	exp.ID = id.ExpenditureID(expID)
	exp.DomainID = id.DomainID(domainID)
	exp.FundingPotID = id.FundingPotID(potID)
	exp.Owner = id.Address(owner)
	exp.Status = models.Status(status)
	if finalizedAt.Valid {
		exp.FinalizedAt = finalizedAt.Time
	}
	return &exp, nil
}
