package memory

import (
	"context"
	"sort"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	"treasury/pkg/platform/sentinel"
)

type pots struct{ *view }

func (p pots) NextID(_ context.Context) (id.FundingPotID, error) {
	if err := p.writable(); err != nil {
		return 0, err
	}
	return id.FundingPotID(p.nextSeq(&p.store.potSeq)), nil
}

func (p pots) Create(_ context.Context, pot *models.FundingPot) error {
	if err := p.writable(); err != nil {
		return err
	}
	key := association{kind: pot.AssociatedType, id: pot.AssociatedID}
	if _, ok := p.store.pots[pot.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := p.store.potIndex[key]; ok {
		return sentinel.ErrConflict
	}
	put(p.journal, p.store.pots, pot.ID, *pot)
	put(p.journal, p.store.potIndex, key, pot.ID)
	return nil
}

func (p pots) Get(_ context.Context, potID id.FundingPotID) (*models.FundingPot, error) {
	pot, ok := p.store.pots[potID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &pot, nil
}

func (p pots) FindByAssociation(ctx context.Context, kind models.AssociationType, associatedID uint64) (*models.FundingPot, error) {
	potID, ok := p.store.potIndex[association{kind: kind, id: associatedID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Get(ctx, potID)
}

func (p pots) row(potID id.FundingPotID, asset id.Address) models.PotAsset {
	row, ok := p.store.potAssets[potAssetKey{pot: potID, asset: asset}]
	if !ok {
		return models.PotAsset{Asset: asset}
	}
	return row
}

func (p pots) update(potID id.FundingPotID, asset id.Address, fn func(row *models.PotAsset) error) error {
	if err := p.writable(); err != nil {
		return err
	}
	if _, ok := p.store.pots[potID]; !ok {
		return sentinel.ErrNotFound
	}
	row := p.row(potID, asset)
	if err := fn(&row); err != nil {
		return err
	}
	put(p.journal, p.store.potAssets, potAssetKey{pot: potID, asset: asset}, row)
	return nil
}

func (p pots) Credit(_ context.Context, potID id.FundingPotID, asset id.Address, amount id.Amount) error {
	return p.update(potID, asset, func(row *models.PotAsset) error {
		next := row.Balance.Add(amount)
		if next.Overflows() {
			return sentinel.ErrOverflow
		}
		row.Balance = next
		return nil
	})
}

func (p pots) Debit(_ context.Context, potID id.FundingPotID, asset id.Address, amount id.Amount) error {
	return p.update(potID, asset, func(row *models.PotAsset) error {
		if row.Balance.Cmp(amount) < 0 {
			return sentinel.ErrInsufficient
		}
		row.Balance = row.Balance.Sub(amount)
		return nil
	})
}

func (p pots) AdjustCommitted(_ context.Context, potID id.FundingPotID, asset id.Address, delta id.Amount) error {
	return p.update(potID, asset, func(row *models.PotAsset) error {
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

func (p pots) Balance(_ context.Context, potID id.FundingPotID, asset id.Address) (id.Amount, error) {
	return p.row(potID, asset).Balance, nil
}

func (p pots) CommittedTotal(_ context.Context, potID id.FundingPotID, asset id.Address) (id.Amount, error) {
	return p.row(potID, asset).Committed, nil
}

func (p pots) IsFunded(_ context.Context, potID id.FundingPotID, asset id.Address) (bool, error) {
	return p.row(potID, asset).IsFunded(), nil
}

func (p pots) Balances(_ context.Context, potID id.FundingPotID) ([]models.PotAsset, error) {
	var rows []models.PotAsset
	for key, row := range p.store.potAssets {
		if key.pot == potID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Asset < rows[j].Asset })
	return rows, nil
}

func (p pots) Count(_ context.Context) (uint64, error) {
	return uint64(len(p.store.pots)), nil
}
