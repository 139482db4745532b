package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
)

// CreateExpenditureRequest is the body of POST /expenditures.
type CreateExpenditureRequest struct {
	DomainID uint64 `json:"domain_id"`
}

func (r *CreateExpenditureRequest) Validate() error {
	if r.DomainID == 0 {
		return dErrors.New(dErrors.CodeValidation, "domain_id is required")
	}
	return nil
}

func (r *CreateExpenditureRequest) ParsedDomainID() id.DomainID { return id.DomainID(r.DomainID) }

// TransferExpenditureRequest is the body of POST /expenditures/{id}/transfer.
type TransferExpenditureRequest struct {
	NewOwner string `json:"new_owner"`

	newOwner id.Address
}

func (r *TransferExpenditureRequest) Validate() error {
	owner, err := id.ParseAddress(r.NewOwner)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "new_owner is invalid")
	}
	r.newOwner = owner
	return nil
}

func (r *TransferExpenditureRequest) ParsedNewOwner() id.Address { return r.newOwner }

// SetSkillRequest is the body of POST .../recipients/{recipient}/skills.
// skill_id 0 is accepted and means no skill.
type SetSkillRequest struct {
	SkillID *uint64 `json:"skill_id"`
}

func (r *SetSkillRequest) Validate() error {
	if r.SkillID == nil {
		return dErrors.New(dErrors.CodeValidation, "skill_id is required")
	}
	return nil
}

func (r *SetSkillRequest) ParsedSkillID() id.SkillID { return id.SkillID(*r.SkillID) }

// SetPayoutRequest is the body of PUT .../payouts/{asset}. Amounts are
// decimal strings in the asset's smallest unit.
type SetPayoutRequest struct {
	Amount string `json:"amount"`

	amount id.Amount
}

func (r *SetPayoutRequest) Validate() error {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.amount = amount
	return nil
}

func (r *SetPayoutRequest) ParsedAmount() id.Amount { return r.amount }

// MoveFundsRequest is the body of POST /funding-pots/moves.
type MoveFundsRequest struct {
	FromPotID uint64 `json:"from_pot_id"`
	ToPotID   uint64 `json:"to_pot_id"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`

	asset  id.Address
	amount id.Amount
}

func (r *MoveFundsRequest) Validate() error {
	if r.FromPotID == 0 || r.ToPotID == 0 {
		return dErrors.New(dErrors.CodeValidation, "from_pot_id and to_pot_id are required")
	}
	asset, err := id.ParseAddress(r.Asset)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "asset is invalid")
	}
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.asset, r.amount = asset, amount
	return nil
}

func (r *MoveFundsRequest) ParsedFrom() id.FundingPotID { return id.FundingPotID(r.FromPotID) }
func (r *MoveFundsRequest) ParsedTo() id.FundingPotID   { return id.FundingPotID(r.ToPotID) }
func (r *MoveFundsRequest) ParsedAsset() id.Address     { return r.asset }
func (r *MoveFundsRequest) ParsedAmount() id.Amount     { return r.amount }

// DepositRequest is the body of POST /domains/{domain}/deposits.
type DepositRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`

	asset  id.Address
	amount id.Amount
}

func (r *DepositRequest) Validate() error {
	asset, err := id.ParseAddress(r.Asset)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "asset is invalid")
	}
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.asset, r.amount = asset, amount
	return nil
}

func (r *DepositRequest) ParsedAsset() id.Address { return r.asset }
func (r *DepositRequest) ParsedAmount() id.Amount { return r.amount }

func parseAmount(raw string) (id.Amount, error) {
	if strings.TrimSpace(raw) == "" {
		return id.Zero(), dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	amount, err := id.ParseAmount(raw)
	if err != nil {
		return id.Zero(), dErrors.Wrap(err, dErrors.CodeValidation, "amount is invalid")
	}
	return amount, nil
}

// Path parameters.

func pathExpenditureID(r *http.Request) (id.ExpenditureID, error) {
	return id.ParseExpenditureID(chi.URLParam(r, "id"))
}

func pathFundingPotID(r *http.Request) (id.FundingPotID, error) {
	return id.ParseFundingPotID(chi.URLParam(r, "id"))
}

func pathDomainID(r *http.Request) (id.DomainID, error) {
	return id.ParseDomainID(chi.URLParam(r, "domain"))
}

func pathAddress(r *http.Request, name string) (id.Address, error) {
	addr, err := id.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, name+" is invalid")
	}
	return addr, nil
}
