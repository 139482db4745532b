package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"treasury/internal/expenditure/handler/mocks"
	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	"treasury/pkg/requestcontext"
)

const owner = id.Address("owner")

//go:generate mockgen -source=handler.go -destination=mocks/expenditure-mocks.go -package=mocks Service
type ExpenditureHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ExpenditureHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestExpenditureHandlerSuite(t *testing.T) {
	suite.Run(t, new(ExpenditureHandlerSuite))
}

func newTestHandler(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, logger)
	r := chi.NewRouter()
	handler.Register(r)
	return r, mockService
}

func (s *ExpenditureHandlerSuite) do(router http.Handler, method, path string, body any, caller id.Address) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	ctx := requestcontext.WithRequestID(s.ctx, "req-1")
	if caller != "" {
		ctx = requestcontext.WithCaller(ctx, caller)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req.WithContext(ctx))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *ExpenditureHandlerSuite) TestCreateExpenditure() {
	s.Run("creates expenditure in the requested domain", func() {
		router, mockService := newTestHandler(s.T())
		created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		mockService.EXPECT().CreateExpenditure(gomock.Any(), id.DomainID(1), owner).Return(&models.Expenditure{
			ID:           1,
			DomainID:     1,
			FundingPotID: 2,
			Owner:        owner,
			Status:       models.StatusActive,
			CreatedAt:    created,
		}, nil)

		w := s.do(router, http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, owner)

		s.Equal(http.StatusCreated, w.Code)
		resp := decode(s.T(), w)
		s.Equal(float64(1), resp["id"])
		s.Equal(float64(2), resp["funding_pot_id"])
		s.Equal("active", resp["status"])
		s.Equal(float64(0), resp["finalized_timestamp"])
	})

	s.Run("rejects unauthenticated callers before calling the service", func() {
		router, _ := newTestHandler(s.T())

		w := s.do(router, http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, "")

		s.Equal(http.StatusUnauthorized, w.Code)
		s.Equal("unauthenticated", decode(s.T(), w)["error"])
	})

	s.Run("rejects missing domain", func() {
		router, _ := newTestHandler(s.T())

		w := s.do(router, http.MethodPost, "/expenditures", map[string]any{}, owner)

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("rejects unknown fields", func() {
		router, _ := newTestHandler(s.T())

		w := s.do(router, http.MethodPost, "/expenditures", map[string]any{"domain_id": 1, "owner": "x"}, owner)

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("maps unauthorized to forbidden", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().CreateExpenditure(gomock.Any(), id.DomainID(1), owner).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "caller lacks administration permission"))

		w := s.do(router, http.MethodPost, "/expenditures", map[string]any{"domain_id": 1}, owner)

		s.Equal(http.StatusForbidden, w.Code)
		s.Equal("unauthorized", decode(s.T(), w)["error"])
	})
}

func (s *ExpenditureHandlerSuite) TestTransitions() {
	finalizedAt := time.Unix(1_700_000_000, 0).UTC()

	s.Run("finalize returns the timestamp", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().FinalizeExpenditure(gomock.Any(), id.ExpenditureID(7), owner).Return(&models.Expenditure{
			ID:          7,
			Owner:       owner,
			Status:      models.StatusFinalized,
			FinalizedAt: finalizedAt,
		}, nil)

		w := s.do(router, http.MethodPost, "/expenditures/7/finalize", nil, owner)

		s.Equal(http.StatusOK, w.Code)
		resp := decode(s.T(), w)
		s.Equal("finalized", resp["status"])
		s.Equal(float64(1_700_000_000), resp["finalized_timestamp"])
	})

	s.Run("cancel by non-owner is forbidden", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().CancelExpenditure(gomock.Any(), id.ExpenditureID(7), id.Address("mallory")).
			Return(nil, dErrors.New(dErrors.CodeNotOwner, "caller is not the expenditure owner"))

		w := s.do(router, http.MethodPost, "/expenditures/7/cancel", nil, "mallory")

		s.Equal(http.StatusForbidden, w.Code)
		s.Equal("not_owner", decode(s.T(), w)["error"])
	})

	s.Run("finalize of an underfunded expenditure conflicts", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().FinalizeExpenditure(gomock.Any(), id.ExpenditureID(7), owner).
			Return(nil, dErrors.New(dErrors.CodeInsufficientFunding, "funding pot does not cover committed payouts"))

		w := s.do(router, http.MethodPost, "/expenditures/7/finalize", nil, owner)

		s.Equal(http.StatusConflict, w.Code)
		s.Equal("insufficient_funding", decode(s.T(), w)["error"])
	})

	s.Run("invalid id is rejected", func() {
		router, _ := newTestHandler(s.T())

		w := s.do(router, http.MethodPost, "/expenditures/zero/cancel", nil, owner)

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("transfer normalizes the new owner", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().TransferExpenditure(gomock.Any(), id.ExpenditureID(7), id.Address("bob"), owner).
			Return(&models.Expenditure{ID: 7, Owner: "bob", Status: models.StatusActive}, nil)

		w := s.do(router, http.MethodPost, "/expenditures/7/transfer", map[string]any{"new_owner": " BOB "}, owner)

		s.Equal(http.StatusOK, w.Code)
		s.Equal("bob", decode(s.T(), w)["owner"])
	})
}

func (s *ExpenditureHandlerSuite) TestRecipientEndpoints() {
	s.Run("set payout passes the parsed amount", func() {
		router, mockService := newTestHandler(s.T())
		wad := id.MustAmount("1000000000000000000")
		mockService.EXPECT().
			SetExpenditurePayout(gomock.Any(), id.ExpenditureID(3), id.Address("alice"), id.Address("token"), wad, owner).
			Return(nil)

		w := s.do(router, http.MethodPut, "/expenditures/3/recipients/alice/payouts/token",
			map[string]any{"amount": "1000000000000000000"}, owner)

		s.Equal(http.StatusOK, w.Code)
		s.Equal("1000000000000000000", decode(s.T(), w)["amount"])
	})

	s.Run("negative payout is rejected", func() {
		router, _ := newTestHandler(s.T())

		w := s.do(router, http.MethodPut, "/expenditures/3/recipients/alice/payouts/token",
			map[string]any{"amount": "-1"}, owner)

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("payout above 2^256-1 is rejected", func() {
		router, _ := newTestHandler(s.T())

		w := s.do(router, http.MethodPut, "/expenditures/3/recipients/alice/payouts/token",
			map[string]any{"amount": "1" + strings.Repeat("0", 100)}, owner)

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("set skill accepts zero", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().
			SetExpenditureSkill(gomock.Any(), id.ExpenditureID(3), id.Address("alice"), id.NoSkill, owner).
			Return(&models.Recipient{Account: "alice"}, nil)

		w := s.do(router, http.MethodPost, "/expenditures/3/recipients/alice/skills",
			map[string]any{"skill_id": 0}, owner)

		s.Equal(http.StatusOK, w.Code)
		s.Empty(decode(s.T(), w)["skills"])
	})

	s.Run("deprecated skill is unprocessable", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().
			SetExpenditureSkill(gomock.Any(), id.ExpenditureID(3), id.Address("alice"), id.SkillID(5), owner).
			Return(nil, dErrors.New(dErrors.CodeDeprecatedSkill, "skill is deprecated"))

		w := s.do(router, http.MethodPost, "/expenditures/3/recipients/alice/skills",
			map[string]any{"skill_id": 5}, owner)

		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("recipient view lists skills and payouts", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().GetExpenditureRecipient(gomock.Any(), id.ExpenditureID(3), id.Address("alice")).
			Return(&models.Recipient{
				Account: "alice",
				Skills:  []id.SkillID{3},
				Payouts: []models.Payout{{Asset: "token", Amount: id.NewAmount(5)}},
			}, nil)

		w := s.do(router, http.MethodGet, "/expenditures/3/recipients/alice", nil, owner)

		s.Equal(http.StatusOK, w.Code)
		resp := decode(s.T(), w)
		s.Equal([]any{float64(3)}, resp["skills"])
		payouts := resp["payouts"].([]any)
		s.Require().Len(payouts, 1)
		s.Equal("5", payouts[0].(map[string]any)["amount"])
	})
}

func (s *ExpenditureHandlerSuite) TestClaim() {
	s.Run("returns the fee split", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().
			ClaimExpenditure(gomock.Any(), id.ExpenditureID(3), id.Address("alice"), id.Address("token"), id.Address("anyone")).
			Return(&models.ClaimResult{
				ExpenditureID: 3,
				Recipient:     "alice",
				Asset:         "token",
				Payout:        id.MustAmount("1000000000000000000"),
				Fee:           id.MustAmount("10000000000000000"),
				Net:           id.MustAmount("990000000000000000"),
			}, nil)

		w := s.do(router, http.MethodPost, "/expenditures/3/recipients/alice/payouts/token/claim", nil, "anyone")

		s.Equal(http.StatusOK, w.Code)
		resp := decode(s.T(), w)
		s.Equal("10000000000000000", resp["fee"])
		s.Equal("990000000000000000", resp["net"])
	})

	s.Run("claim before finalize conflicts", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().
			ClaimExpenditure(gomock.Any(), id.ExpenditureID(3), id.Address("alice"), id.Address("token"), owner).
			Return(nil, dErrors.New(dErrors.CodeNotFinalized, "expenditure is not finalized"))

		w := s.do(router, http.MethodPost, "/expenditures/3/recipients/alice/payouts/token/claim", nil, owner)

		s.Equal(http.StatusConflict, w.Code)
		s.Equal("not_finalized", decode(s.T(), w)["error"])
	})
}

func (s *ExpenditureHandlerSuite) TestFunding() {
	s.Run("move funds", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().
			MoveFundsBetweenPots(gomock.Any(), id.FundingPotID(1), id.FundingPotID(2), id.Address("token"), id.NewAmount(40), owner).
			Return(nil)

		w := s.do(router, http.MethodPost, "/funding-pots/moves", map[string]any{
			"from_pot_id": 1, "to_pot_id": 2, "asset": "token", "amount": "40",
		}, owner)

		s.Equal(http.StatusOK, w.Code)
		s.Equal("40", decode(s.T(), w)["amount"])
	})

	s.Run("move funds requires both pots", func() {
		router, _ := newTestHandler(s.T())

		w := s.do(router, http.MethodPost, "/funding-pots/moves", map[string]any{
			"from_pot_id": 1, "asset": "token", "amount": "40",
		}, owner)

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("deposit returns the domain pot", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().
			DepositFunds(gomock.Any(), id.DomainID(1), id.Address("token"), id.NewAmount(100), owner).
			Return(&models.FundingPotDetails{
				FundingPot: models.FundingPot{ID: 1, AssociatedType: models.AssociationDomain, AssociatedID: 1},
				Assets:     []models.PotAsset{{Asset: "token", Balance: id.NewAmount(100), Committed: id.Zero()}},
			}, nil)

		w := s.do(router, http.MethodPost, "/domains/1/deposits", map[string]any{"asset": "token", "amount": "100"}, owner)

		s.Equal(http.StatusOK, w.Code)
		resp := decode(s.T(), w)
		s.Equal("domain", resp["associated_type"])
		asset := resp["assets"].([]any)[0].(map[string]any)
		s.Equal("100", asset["balance"])
		s.Equal(true, asset["funded"])
	})

	s.Run("pot asset view", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().GetFundingPotAsset(gomock.Any(), id.FundingPotID(2), id.Address("token")).
			Return(&models.FundingPotAsset{
				FundingPotID: 2,
				PotAsset:     models.PotAsset{Asset: "token", Balance: id.NewAmount(1), Committed: id.NewAmount(2)},
				Funded:       false,
			}, nil)

		w := s.do(router, http.MethodGet, "/funding-pots/2/assets/token", nil, owner)

		s.Equal(http.StatusOK, w.Code)
		resp := decode(s.T(), w)
		s.Equal("2", resp["committed_payout_total"])
		s.Equal(false, resp["funded"])
	})

	s.Run("unknown pot is not found", func() {
		router, mockService := newTestHandler(s.T())
		mockService.EXPECT().GetFundingPot(gomock.Any(), id.FundingPotID(99)).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "funding pot not found"))

		w := s.do(router, http.MethodGet, "/funding-pots/99", nil, owner)

		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *ExpenditureHandlerSuite) TestQueries() {
	router, mockService := newTestHandler(s.T())
	mockService.EXPECT().GetExpenditureCount(gomock.Any()).Return(uint64(4), nil)
	mockService.EXPECT().GetFundingPotCount(gomock.Any()).Return(uint64(6), nil)
	mockService.EXPECT().GetExpenditureAssetTotal(gomock.Any(), id.ExpenditureID(2), id.Address("token")).
		Return(id.NewAmount(30), nil)
	mockService.EXPECT().GetAssetBalance(gomock.Any(), id.Address("token"), id.Address("alice")).
		Return(id.NewAmount(12), nil)
	mockService.EXPECT().GetExpenditurePayout(gomock.Any(), id.ExpenditureID(2), id.Address("alice"), id.Address("token")).
		Return(id.NewAmount(10), nil)

	w := s.do(router, http.MethodGet, "/expenditures/count", nil, owner)
	assert.Equal(s.T(), float64(4), decode(s.T(), w)["count"])

	w = s.do(router, http.MethodGet, "/funding-pots/count", nil, owner)
	assert.Equal(s.T(), float64(6), decode(s.T(), w)["count"])

	w = s.do(router, http.MethodGet, "/expenditures/2/totals/token", nil, owner)
	assert.Equal(s.T(), "30", decode(s.T(), w)["total"])

	w = s.do(router, http.MethodGet, "/assets/token/balances/alice", nil, owner)
	assert.Equal(s.T(), "12", decode(s.T(), w)["balance"])

	w = s.do(router, http.MethodGet, "/expenditures/2/recipients/alice/payouts/token", nil, owner)
	assert.Equal(s.T(), "10", decode(s.T(), w)["amount"])
}

func (s *ExpenditureHandlerSuite) TestInternalErrorsDoNotLeak() {
	router, mockService := newTestHandler(s.T())
	mockService.EXPECT().GetExpenditure(gomock.Any(), id.ExpenditureID(1)).
		Return(nil, dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "failed to load expenditure"))

	w := s.do(router, http.MethodGet, "/expenditures/1", nil, owner)

	s.Equal(http.StatusInternalServerError, w.Code)
	resp := decode(s.T(), w)
	s.Equal("internal_error", resp["error"])
	s.NotContains(w.Body.String(), "unexpected EOF")
}
