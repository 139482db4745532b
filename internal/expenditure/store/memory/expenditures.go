package memory

import (
	"context"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	"treasury/pkg/platform/sentinel"
)

type expenditures struct{ *view }

func (e expenditures) NextID(_ context.Context) (id.ExpenditureID, error) {
	if err := e.writable(); err != nil {
		return 0, err
	}
	return id.ExpenditureID(e.nextSeq(&e.store.expSeq)), nil
}

func (e expenditures) Create(_ context.Context, exp *models.Expenditure) error {
	if err := e.writable(); err != nil {
		return err
	}
	if _, ok := e.store.expenditures[exp.ID]; ok {
		return sentinel.ErrConflict
	}
	put(e.journal, e.store.expenditures, exp.ID, *exp)
	return nil
}

func (e expenditures) Get(_ context.Context, expID id.ExpenditureID) (*models.Expenditure, error) {
	exp, ok := e.store.expenditures[expID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &exp, nil
}

// GetForUpdate is Get; the store lock already serializes the unit of work.
func (e expenditures) GetForUpdate(ctx context.Context, expID id.ExpenditureID) (*models.Expenditure, error) {
	return e.Get(ctx, expID)
}

func (e expenditures) Update(_ context.Context, exp *models.Expenditure) error {
	if err := e.writable(); err != nil {
		return err
	}
	if _, ok := e.store.expenditures[exp.ID]; !ok {
		return sentinel.ErrNotFound
	}
	put(e.journal, e.store.expenditures, exp.ID, *exp)
	return nil
}

func (e expenditures) Count(_ context.Context) (uint64, error) {
	return uint64(len(e.store.expenditures)), nil
}
