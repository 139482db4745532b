package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"treasury/internal/expenditure/models"
	"treasury/internal/expenditure/service"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	"treasury/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

var (
	token = id.MustAddress("token")
	alice = id.MustAddress("alice")
	bob   = id.MustAddress("bob")
)

func (s *StoreSuite) createPot() id.FundingPotID {
	var potID id.FundingPotID
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
		var err error
		potID, err = st.Pots().NextID(ctx)
		if err != nil {
			return err
		}
		return st.Pots().Create(ctx, &models.FundingPot{ID: potID, AssociatedType: models.AssociationDomain, AssociatedID: uint64(potID)})
	}))
	return potID
}

func (s *StoreSuite) TestRollbackRevertsEveryWrite() {
	potID := s.createPot()
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
		expID, err := st.Expenditures().NextID(ctx)
		s.Require().NoError(err)
		s.Require().NoError(st.Expenditures().Create(ctx, &models.Expenditure{ID: expID, FundingPotID: potID, Status: models.StatusActive}))
		s.Require().NoError(st.Pots().Credit(ctx, potID, token, id.NewAmount(10)))
		s.Require().NoError(st.Pots().AdjustCommitted(ctx, potID, token, id.NewAmount(4)))
		_, err = st.Payouts().Set(ctx, expID, alice, token, id.NewAmount(4))
		s.Require().NoError(err)
		s.Require().NoError(st.Payouts().AddSkill(ctx, expID, alice, 3))
		s.Require().NoError(st.Assets().Credit(ctx, token, alice, id.NewAmount(7)))
		return boom
	})
	s.Require().ErrorIs(err, boom)

	s.Require().NoError(s.store.View(s.ctx, func(ctx context.Context, st service.Stores) error {
		n, _ := st.Expenditures().Count(ctx)
		s.Zero(n)
		balances, _ := st.Pots().Balances(ctx, potID)
		s.Empty(balances)
		rec, _ := st.Payouts().Recipient(ctx, 1, alice)
		s.Empty(rec.Skills)
		s.Empty(rec.Payouts)
		bal, _ := st.Assets().Balance(ctx, token, alice)
		s.True(bal.IsZero())
		return nil
	}))

	// the rolled back id is handed out again, so ids stay gapless
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
		expID, err := st.Expenditures().NextID(ctx)
		s.Equal(id.ExpenditureID(1), expID)
		return err
	}))
}

func (s *StoreSuite) TestLedgerRules() {
	potID := s.createPot()

	s.Run("debit beyond balance is refused", func() {
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
			s.Require().NoError(st.Pots().Credit(ctx, potID, token, id.NewAmount(5)))
			return st.Pots().Debit(ctx, potID, token, id.NewAmount(6))
		})
		s.ErrorIs(err, sentinel.ErrInsufficient)
	})

	s.Run("committed total never goes negative", func() {
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
			s.Require().NoError(st.Pots().AdjustCommitted(ctx, potID, token, id.NewAmount(3)))
			return st.Pots().AdjustCommitted(ctx, potID, token, id.NewAmount(-4))
		})
		s.ErrorIs(err, sentinel.ErrNegativeTotal)
	})

	s.Run("funded reflects balance against committed", func() {
		s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
			if err := st.Pots().Credit(ctx, potID, token, id.NewAmount(2)); err != nil {
				return err
			}
			return st.Pots().AdjustCommitted(ctx, potID, token, id.NewAmount(3))
		}))
		s.Require().NoError(s.store.View(s.ctx, func(ctx context.Context, st service.Stores) error {
			funded, err := st.Pots().IsFunded(ctx, potID, token)
			s.False(funded)
			return err
		}))
	})

	s.Run("unknown pot", func() {
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
			return st.Pots().Credit(ctx, 99, token, id.NewAmount(1))
		})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("totals stay within the storable range", func() {
		err := s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
			return st.Pots().Credit(ctx, potID, token, id.MaxAmount())
		})
		s.ErrorIs(err, sentinel.ErrOverflow)

		err = s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
			return st.Pots().AdjustCommitted(ctx, potID, token, id.MaxAmount())
		})
		s.ErrorIs(err, sentinel.ErrOverflow)

		err = s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
			s.Require().NoError(st.Assets().Credit(ctx, token, alice, id.MaxAmount()))
			return st.Assets().Credit(ctx, token, alice, id.NewAmount(1))
		})
		s.ErrorIs(err, sentinel.ErrOverflow)
	})
}

func (s *StoreSuite) TestPayoutsAndTransfers() {
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
		delta, err := st.Payouts().Set(ctx, 1, alice, token, id.NewAmount(20))
		s.Require().NoError(err)
		s.Equal("20", delta.String())

		delta, err = st.Payouts().Set(ctx, 1, alice, token, id.NewAmount(5))
		s.Require().NoError(err)
		s.Equal("-15", delta.String())

		_, err = st.Payouts().Set(ctx, 1, bob, token, id.NewAmount(10))
		s.Require().NoError(err)
		total, _ := st.Payouts().TotalForAsset(ctx, 1, token)
		s.Equal("15", total.String())

		s.Require().NoError(st.Payouts().AddSkill(ctx, 1, alice, 3))
		s.Require().NoError(st.Payouts().AddSkill(ctx, 1, alice, 3))
		rec, _ := st.Payouts().Recipient(ctx, 1, alice)
		s.Equal([]id.SkillID{3}, rec.Skills)

		s.Require().NoError(st.Assets().Credit(ctx, token, alice, id.NewAmount(10)))
		s.ErrorIs(st.Assets().Transfer(ctx, token, alice, bob, id.NewAmount(11)), sentinel.ErrInsufficient)
		s.Require().NoError(st.Assets().Transfer(ctx, token, alice, bob, id.NewAmount(4)))
		bal, _ := st.Assets().Balance(ctx, token, bob)
		s.Equal("4", bal.String())
		return nil
	}))
}

func (s *StoreSuite) TestViewIsReadOnly() {
	err := s.store.View(s.ctx, func(ctx context.Context, st service.Stores) error {
		_, err := st.Expenditures().NextID(ctx)
		return err
	})
	s.ErrorIs(err, errReadOnly)
}

func (s *StoreSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	called := false
	err := s.store.RunInTx(ctx, func(context.Context, service.Stores) error {
		called = true
		return nil
	})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	s.False(called)
}

func (s *StoreSuite) TestAssociationIsUnique() {
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, st service.Stores) error {
		if err := st.Pots().Create(ctx, &models.FundingPot{ID: 1, AssociatedType: models.AssociationDomain, AssociatedID: 1}); err != nil {
			return err
		}
		return st.Pots().Create(ctx, &models.FundingPot{ID: 2, AssociatedType: models.AssociationDomain, AssociatedID: 1})
	})
	s.ErrorIs(err, sentinel.ErrConflict)
	s.Require().NoError(s.store.View(s.ctx, func(ctx context.Context, st service.Stores) error {
		_, err := st.Pots().FindByAssociation(ctx, models.AssociationDomain, 1)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	}))
}
