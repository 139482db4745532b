package service_test

import (
	"context"

	"treasury/internal/expenditure/models"
	"treasury/internal/expenditure/service"
	"treasury/internal/expenditure/store/memory"
	id "treasury/pkg/domain"
	"treasury/pkg/platform/sentinel"
)

// lateDepositTx lets a competing depositor allocate the domain pot between
// the first unit of work's lookup and its insert.
type lateDepositTx struct {
	*memory.Store
	domain id.DomainID
	raced  bool
}

func (t *lateDepositTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	if t.raced {
		return t.Store.RunInTx(ctx, fn)
	}
	t.raced = true
	err := t.Store.RunInTx(ctx, func(ctx context.Context, stores service.Stores) error {
		potID, err := stores.Pots().NextID(ctx)
		if err != nil {
			return err
		}
		return stores.Pots().Create(ctx, &models.FundingPot{
			ID:             potID,
			AssociatedType: models.AssociationDomain,
			AssociatedID:   uint64(t.domain),
		})
	})
	if err != nil {
		return err
	}
	return t.Store.RunInTx(ctx, func(ctx context.Context, stores service.Stores) error {
		return fn(ctx, staleStores{Stores: stores})
	})
}

// staleStores reports no domain pot, as a lookup that ran before the
// competing insert committed would.
type staleStores struct {
	service.Stores
}

func (s staleStores) Pots() service.FundingPotLedger {
	return stalePots{FundingPotLedger: s.Stores.Pots()}
}

type stalePots struct {
	service.FundingPotLedger
}

func (stalePots) FindByAssociation(context.Context, models.AssociationType, uint64) (*models.FundingPot, error) {
	return nil, sentinel.ErrNotFound
}

func (s *ServiceSuite) TestDepositLosingPotAllocationRaceRereads() {
	s.Require().NoError(s.authz.Grant(s.ctx, 7, admin))
	tx := &lateDepositTx{Store: s.store, domain: 7}
	svc := s.newService(tx)

	potsBefore, err := svc.GetFundingPotCount(s.ctx)
	s.Require().NoError(err)

	details, err := svc.DepositFunds(s.ctx, 7, token, wad, admin)
	s.Require().NoError(err)

	potsAfter, err := svc.GetFundingPotCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(potsBefore+1, potsAfter)
	s.Equal(id.DomainID(7), id.DomainID(details.AssociatedID))

	bal, err := svc.GetFundingPotBalance(s.ctx, details.ID, token)
	s.Require().NoError(err)
	s.Equal(wad.String(), bal.String())
}
