package handler

import (
	"time"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
)

type ExpenditureResponse struct {
	ID                 uint64    `json:"id"`
	DomainID           uint64    `json:"domain_id"`
	FundingPotID       uint64    `json:"funding_pot_id"`
	Owner              string    `json:"owner"`
	Status             string    `json:"status"`
	FinalizedTimestamp int64     `json:"finalized_timestamp"`
	CreatedAt          time.Time `json:"created_at"`
}

func FromExpenditure(exp *models.Expenditure) ExpenditureResponse {
	return ExpenditureResponse{
		ID:                 uint64(exp.ID),
		DomainID:           uint64(exp.DomainID),
		FundingPotID:       uint64(exp.FundingPotID),
		Owner:              exp.Owner.String(),
		Status:             string(exp.Status),
		FinalizedTimestamp: exp.FinalizedTimestamp(),
		CreatedAt:          exp.CreatedAt,
	}
}

type PayoutEntry struct {
	Asset  string    `json:"asset"`
	Amount id.Amount `json:"amount"`
}

type RecipientResponse struct {
	ExpenditureID uint64        `json:"expenditure_id"`
	Recipient     string        `json:"recipient"`
	Skills        []uint64      `json:"skills"`
	Payouts       []PayoutEntry `json:"payouts"`
}

func FromRecipient(expID id.ExpenditureID, rec *models.Recipient) RecipientResponse {
	resp := RecipientResponse{
		ExpenditureID: uint64(expID),
		Recipient:     rec.Account.String(),
		Skills:        make([]uint64, 0, len(rec.Skills)),
		Payouts:       make([]PayoutEntry, 0, len(rec.Payouts)),
	}
	for _, s := range rec.Skills {
		resp.Skills = append(resp.Skills, uint64(s))
	}
	for _, p := range rec.Payouts {
		resp.Payouts = append(resp.Payouts, PayoutEntry{Asset: p.Asset.String(), Amount: p.Amount})
	}
	return resp
}

type PotAssetResponse struct {
	Asset     string    `json:"asset"`
	Balance   id.Amount `json:"balance"`
	Committed id.Amount `json:"committed_payout_total"`
	Funded    bool      `json:"funded"`
}

type FundingPotResponse struct {
	ID             uint64             `json:"id"`
	AssociatedType string             `json:"associated_type"`
	AssociatedID   uint64             `json:"associated_id"`
	Assets         []PotAssetResponse `json:"assets"`
}

func FromFundingPot(pot *models.FundingPotDetails) FundingPotResponse {
	resp := FundingPotResponse{
		ID:             uint64(pot.ID),
		AssociatedType: string(pot.AssociatedType),
		AssociatedID:   pot.AssociatedID,
		Assets:         make([]PotAssetResponse, 0, len(pot.Assets)),
	}
	for _, a := range pot.Assets {
		resp.Assets = append(resp.Assets, PotAssetResponse{
			Asset:     a.Asset.String(),
			Balance:   a.Balance,
			Committed: a.Committed,
			Funded:    a.IsFunded(),
		})
	}
	return resp
}

type FundingPotAssetResponse struct {
	FundingPotID uint64 `json:"funding_pot_id"`
	PotAssetResponse
}

func FromFundingPotAsset(a *models.FundingPotAsset) FundingPotAssetResponse {
	return FundingPotAssetResponse{
		FundingPotID: uint64(a.FundingPotID),
		PotAssetResponse: PotAssetResponse{
			Asset:     a.Asset.String(),
			Balance:   a.Balance,
			Committed: a.Committed,
			Funded:    a.Funded,
		},
	}
}

type CountResponse struct {
	Count uint64 `json:"count"`
}

type PayoutResponse struct {
	ExpenditureID uint64    `json:"expenditure_id"`
	Recipient     string    `json:"recipient"`
	Asset         string    `json:"asset"`
	Amount        id.Amount `json:"amount"`
}

type AssetTotalResponse struct {
	ExpenditureID uint64    `json:"expenditure_id"`
	Asset         string    `json:"asset"`
	Total         id.Amount `json:"total"`
}

type ClaimResponse struct {
	ExpenditureID uint64    `json:"expenditure_id"`
	Recipient     string    `json:"recipient"`
	Asset         string    `json:"asset"`
	Payout        id.Amount `json:"payout"`
	Fee           id.Amount `json:"fee"`
	Net           id.Amount `json:"net"`
}

func FromClaim(result *models.ClaimResult) ClaimResponse {
	return ClaimResponse{
		ExpenditureID: uint64(result.ExpenditureID),
		Recipient:     result.Recipient.String(),
		Asset:         result.Asset.String(),
		Payout:        result.Payout,
		Fee:           result.Fee,
		Net:           result.Net,
	}
}

type BalanceResponse struct {
	Asset   string    `json:"asset"`
	Account string    `json:"account"`
	Balance id.Amount `json:"balance"`
}

type MoveFundsResponse struct {
	FromPotID uint64    `json:"from_pot_id"`
	ToPotID   uint64    `json:"to_pot_id"`
	Asset     string    `json:"asset"`
	Amount    id.Amount `json:"amount"`
}
