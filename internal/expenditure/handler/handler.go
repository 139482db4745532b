package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
	"treasury/pkg/platform/httputil"
	"treasury/pkg/requestcontext"
)

// Service defines the expenditure operations exposed over HTTP.
type Service interface {
	CreateExpenditure(ctx context.Context, domainID id.DomainID, caller id.Address) (*models.Expenditure, error)
	CancelExpenditure(ctx context.Context, expID id.ExpenditureID, caller id.Address) (*models.Expenditure, error)
	TransferExpenditure(ctx context.Context, expID id.ExpenditureID, newOwner, caller id.Address) (*models.Expenditure, error)
	SetExpenditureSkill(ctx context.Context, expID id.ExpenditureID, recipient id.Address, skill id.SkillID, caller id.Address) (*models.Recipient, error)
	SetExpenditurePayout(ctx context.Context, expID id.ExpenditureID, recipient, asset id.Address, amount id.Amount, caller id.Address) error
	FinalizeExpenditure(ctx context.Context, expID id.ExpenditureID, caller id.Address) (*models.Expenditure, error)
	ClaimExpenditure(ctx context.Context, expID id.ExpenditureID, recipient, asset, caller id.Address) (*models.ClaimResult, error)
	DepositFunds(ctx context.Context, domainID id.DomainID, asset id.Address, amount id.Amount, caller id.Address) (*models.FundingPotDetails, error)
	MoveFundsBetweenPots(ctx context.Context, from, to id.FundingPotID, asset id.Address, amount id.Amount, caller id.Address) error

	GetExpenditure(ctx context.Context, expID id.ExpenditureID) (*models.Expenditure, error)
	GetExpenditureCount(ctx context.Context) (uint64, error)
	GetFundingPot(ctx context.Context, potID id.FundingPotID) (*models.FundingPotDetails, error)
	GetFundingPotCount(ctx context.Context) (uint64, error)
	GetFundingPotAsset(ctx context.Context, potID id.FundingPotID, asset id.Address) (*models.FundingPotAsset, error)
	GetExpenditureRecipient(ctx context.Context, expID id.ExpenditureID, recipient id.Address) (*models.Recipient, error)
	GetExpenditurePayout(ctx context.Context, expID id.ExpenditureID, recipient, asset id.Address) (id.Amount, error)
	GetExpenditureAssetTotal(ctx context.Context, expID id.ExpenditureID, asset id.Address) (id.Amount, error)
	GetAssetBalance(ctx context.Context, asset, account id.Address) (id.Amount, error)
}

// Handler wires expenditure and funding pot endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an expenditure handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the expenditure, funding pot and asset endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/expenditures", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/count", h.HandleCount)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Post("/cancel", h.HandleCancel)
			r.Post("/transfer", h.HandleTransfer)
			r.Post("/finalize", h.HandleFinalize)
			r.Get("/totals/{asset}", h.HandleAssetTotal)
			r.Route("/recipients/{recipient}", func(r chi.Router) {
				r.Get("/", h.HandleGetRecipient)
				r.Post("/skills", h.HandleSetSkill)
				r.Put("/payouts/{asset}", h.HandleSetPayout)
				r.Get("/payouts/{asset}", h.HandleGetPayout)
				r.Post("/payouts/{asset}/claim", h.HandleClaim)
			})
		})
	})
	r.Route("/funding-pots", func(r chi.Router) {
		r.Get("/count", h.HandlePotCount)
		r.Post("/moves", h.HandleMoveFunds)
		r.Get("/{id}", h.HandleGetPot)
		r.Get("/{id}/assets/{asset}", h.HandleGetPotAsset)
	})
	r.Post("/domains/{domain}/deposits", h.HandleDeposit)
	r.Get("/assets/{asset}/balances/{account}", h.HandleAssetBalance)
}

// HandleCreate handles POST /expenditures.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateExpenditureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	exp, err := h.service.CreateExpenditure(ctx, req.ParsedDomainID(), caller)
	if err != nil {
		h.fail(ctx, w, "failed to create expenditure", err, "domain_id", req.DomainID)
		return
	}

	h.logger.InfoContext(ctx, "expenditure created",
		"request_id", requestID,
		"expenditure_id", exp.ID,
		"domain_id", exp.DomainID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromExpenditure(exp))
}

// HandleCount handles GET /expenditures/count.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	count, err := h.service.GetExpenditureCount(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to count expenditures", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Count: count})
}

// HandleGet handles GET /expenditures/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	expID, ok := h.expenditureID(w, r)
	if !ok {
		return
	}
	exp, err := h.service.GetExpenditure(ctx, expID)
	if err != nil {
		h.fail(ctx, w, "failed to get expenditure", err, "expenditure_id", expID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromExpenditure(exp))
}

// HandleCancel handles POST /expenditures/{id}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "expenditure cancelled", h.service.CancelExpenditure)
}

// HandleFinalize handles POST /expenditures/{id}/finalize.
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "expenditure finalized", h.service.FinalizeExpenditure)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, event string,
	fn func(context.Context, id.ExpenditureID, id.Address) (*models.Expenditure, error),
) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	expID, ok := h.expenditureID(w, r)
	if !ok {
		return
	}
	exp, err := fn(ctx, expID, caller)
	if err != nil {
		h.fail(ctx, w, "expenditure transition failed", err, "expenditure_id", expID)
		return
	}
	h.logger.InfoContext(ctx, event,
		"request_id", requestcontext.RequestID(ctx),
		"expenditure_id", exp.ID,
		"status", exp.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromExpenditure(exp))
}

// HandleTransfer handles POST /expenditures/{id}/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	expID, ok := h.expenditureID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferExpenditureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	exp, err := h.service.TransferExpenditure(ctx, expID, req.ParsedNewOwner(), caller)
	if err != nil {
		h.fail(ctx, w, "failed to transfer expenditure", err, "expenditure_id", expID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromExpenditure(exp))
}

// HandleSetSkill handles POST /expenditures/{id}/recipients/{recipient}/skills.
func (h *Handler) HandleSetSkill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	expID, recipient, ok := h.recipientPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetSkillRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rec, err := h.service.SetExpenditureSkill(ctx, expID, recipient, req.ParsedSkillID(), caller)
	if err != nil {
		h.fail(ctx, w, "failed to set recipient skill", err, "expenditure_id", expID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecipient(expID, rec))
}

// HandleSetPayout handles PUT /expenditures/{id}/recipients/{recipient}/payouts/{asset}.
func (h *Handler) HandleSetPayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	expID, recipient, ok := h.recipientPath(w, r)
	if !ok {
		return
	}
	asset, ok := h.address(w, r, "asset")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetPayoutRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.SetExpenditurePayout(ctx, expID, recipient, asset, req.ParsedAmount(), caller); err != nil {
		h.fail(ctx, w, "failed to set payout", err, "expenditure_id", expID, "asset", asset)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PayoutResponse{
		ExpenditureID: uint64(expID),
		Recipient:     recipient.String(),
		Asset:         asset.String(),
		Amount:        req.ParsedAmount(),
	})
}

// HandleGetRecipient handles GET /expenditures/{id}/recipients/{recipient}.
func (h *Handler) HandleGetRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	expID, recipient, ok := h.recipientPath(w, r)
	if !ok {
		return
	}
	rec, err := h.service.GetExpenditureRecipient(ctx, expID, recipient)
	if err != nil {
		h.fail(ctx, w, "failed to get recipient", err, "expenditure_id", expID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecipient(expID, rec))
}

// HandleGetPayout handles GET /expenditures/{id}/recipients/{recipient}/payouts/{asset}.
func (h *Handler) HandleGetPayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	expID, recipient, ok := h.recipientPath(w, r)
	if !ok {
		return
	}
	asset, ok := h.address(w, r, "asset")
	if !ok {
		return
	}
	amount, err := h.service.GetExpenditurePayout(ctx, expID, recipient, asset)
	if err != nil {
		h.fail(ctx, w, "failed to get payout", err, "expenditure_id", expID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PayoutResponse{
		ExpenditureID: uint64(expID),
		Recipient:     recipient.String(),
		Asset:         asset.String(),
		Amount:        amount,
	})
}

// HandleClaim handles POST /expenditures/{id}/recipients/{recipient}/payouts/{asset}/claim.
// Any authenticated caller may trigger a claim; funds always go to the recipient.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	expID, recipient, ok := h.recipientPath(w, r)
	if !ok {
		return
	}
	asset, ok := h.address(w, r, "asset")
	if !ok {
		return
	}
	result, err := h.service.ClaimExpenditure(ctx, expID, recipient, asset, caller)
	if err != nil {
		h.fail(ctx, w, "failed to claim payout", err, "expenditure_id", expID, "recipient", recipient)
		return
	}
	h.logger.InfoContext(ctx, "payout claimed",
		"request_id", requestcontext.RequestID(ctx),
		"expenditure_id", expID,
		"recipient", recipient,
		"asset", asset,
		"payout", result.Payout.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromClaim(result))
}

// HandleAssetTotal handles GET /expenditures/{id}/totals/{asset}.
func (h *Handler) HandleAssetTotal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	expID, ok := h.expenditureID(w, r)
	if !ok {
		return
	}
	asset, ok := h.address(w, r, "asset")
	if !ok {
		return
	}
	total, err := h.service.GetExpenditureAssetTotal(ctx, expID, asset)
	if err != nil {
		h.fail(ctx, w, "failed to get asset total", err, "expenditure_id", expID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AssetTotalResponse{
		ExpenditureID: uint64(expID),
		Asset:         asset.String(),
		Total:         total,
	})
}

// HandlePotCount handles GET /funding-pots/count.
func (h *Handler) HandlePotCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	count, err := h.service.GetFundingPotCount(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to count funding pots", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{Count: count})
}

// HandleGetPot handles GET /funding-pots/{id}.
func (h *Handler) HandleGetPot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	potID, ok := h.fundingPotID(w, r)
	if !ok {
		return
	}
	pot, err := h.service.GetFundingPot(ctx, potID)
	if err != nil {
		h.fail(ctx, w, "failed to get funding pot", err, "funding_pot_id", potID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFundingPot(pot))
}

// HandleGetPotAsset handles GET /funding-pots/{id}/assets/{asset}.
func (h *Handler) HandleGetPotAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	potID, ok := h.fundingPotID(w, r)
	if !ok {
		return
	}
	asset, ok := h.address(w, r, "asset")
	if !ok {
		return
	}
	view, err := h.service.GetFundingPotAsset(ctx, potID, asset)
	if err != nil {
		h.fail(ctx, w, "failed to get funding pot asset", err, "funding_pot_id", potID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFundingPotAsset(view))
}

// HandleMoveFunds handles POST /funding-pots/moves.
func (h *Handler) HandleMoveFunds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MoveFundsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	err := h.service.MoveFundsBetweenPots(ctx, req.ParsedFrom(), req.ParsedTo(), req.ParsedAsset(), req.ParsedAmount(), caller)
	if err != nil {
		h.fail(ctx, w, "failed to move funds", err,
			"from_pot_id", req.FromPotID,
			"to_pot_id", req.ToPotID,
		)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MoveFundsResponse{
		FromPotID: req.FromPotID,
		ToPotID:   req.ToPotID,
		Asset:     req.ParsedAsset().String(),
		Amount:    req.ParsedAmount(),
	})
}

// HandleDeposit handles POST /domains/{domain}/deposits.
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	domain, err := pathDomainID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[DepositRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	pot, err := h.service.DepositFunds(ctx, domain, req.ParsedAsset(), req.ParsedAmount(), caller)
	if err != nil {
		h.fail(ctx, w, "failed to deposit funds", err, "domain_id", domain)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFundingPot(pot))
}

// HandleAssetBalance handles GET /assets/{asset}/balances/{account}.
func (h *Handler) HandleAssetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	asset, ok := h.address(w, r, "asset")
	if !ok {
		return
	}
	account, ok := h.address(w, r, "account")
	if !ok {
		return
	}
	balance, err := h.service.GetAssetBalance(ctx, asset, account)
	if err != nil {
		h.fail(ctx, w, "failed to get asset balance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{
		Asset:   asset.String(),
		Account: account.String(),
		Balance: balance,
	})
}

func (h *Handler) requireCaller(w http.ResponseWriter, r *http.Request) (id.Address, bool) {
	caller := requestcontext.Caller(r.Context())
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return "", false
	}
	return caller, true
}

func (h *Handler) expenditureID(w http.ResponseWriter, r *http.Request) (id.ExpenditureID, bool) {
	expID, err := pathExpenditureID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return expID, true
}

func (h *Handler) fundingPotID(w http.ResponseWriter, r *http.Request) (id.FundingPotID, bool) {
	potID, err := pathFundingPotID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return potID, true
}

func (h *Handler) address(w http.ResponseWriter, r *http.Request, name string) (id.Address, bool) {
	addr, err := pathAddress(r, name)
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return addr, true
}

func (h *Handler) recipientPath(w http.ResponseWriter, r *http.Request) (id.ExpenditureID, id.Address, bool) {
	expID, ok := h.expenditureID(w, r)
	if !ok {
		return 0, "", false
	}
	recipient, ok := h.address(w, r, "recipient")
	if !ok {
		return 0, "", false
	}
	return expID, recipient, true
}

// fail logs at Warn for client errors and Error for everything else.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, kv ...any) {
	attrs := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, kv...)
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
