// Package models holds the expenditure lifecycle and funding pot types.
package models

import (
	"time"

	id "treasury/pkg/domain"
	dErrors "treasury/pkg/domain-errors"
)

// Status is the lifecycle state of an expenditure.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusFinalized Status = "finalized"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCancelled, StatusFinalized:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusFinalized
}

// CanTransitionTo reports whether s may move to next. Only Active moves, and
// only to Cancelled or Finalized.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusActive && next.IsTerminal()
}

func (s Status) String() string { return string(s) }

// Expenditure is a commitment to pay one or more recipients from its own
// funding pot.
//
// Invariants:
//   - FundingPotID is assigned at creation and never changes
//   - FinalizedAt is non-zero iff Status is Finalized
//   - records are never deleted
type Expenditure struct {
	ID           id.ExpenditureID
	DomainID     id.DomainID
	FundingPotID id.FundingPotID
	Owner        id.Address
	Status       Status
	FinalizedAt  time.Time
	CreatedAt    time.Time
}

// NewExpenditure builds an active expenditure owned by owner.
func NewExpenditure(expID id.ExpenditureID, domain id.DomainID, pot id.FundingPotID, owner id.Address, now time.Time) (*Expenditure, error) {
	if expID.IsNil() || pot.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "expenditure and pot ids must be allocated")
	}
	if domain.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "domain id is required")
	}
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	return &Expenditure{
		ID:           expID,
		DomainID:     domain,
		FundingPotID: pot,
		Owner:        owner,
		Status:       StatusActive,
		CreatedAt:    now,
	}, nil
}

func (e *Expenditure) IsOwnedBy(account id.Address) bool {
	return !account.IsNil() && e.Owner == account
}

func (e *Expenditure) IsActive() bool    { return e.Status == StatusActive }
func (e *Expenditure) IsFinalized() bool { return e.Status == StatusFinalized }

// Cancel moves an active expenditure to Cancelled.
func (e *Expenditure) Cancel() error {
	if !e.Status.CanTransitionTo(StatusCancelled) {
		return dErrors.Newf(dErrors.CodeNotActive, "expenditure %s is %s", e.ID, e.Status)
	}
	e.Status = StatusCancelled
	return nil
}

// Finalize moves an active expenditure to Finalized and stamps it with now.
func (e *Expenditure) Finalize(now time.Time) error {
	if !e.Status.CanTransitionTo(StatusFinalized) {
		return dErrors.Newf(dErrors.CodeNotActive, "expenditure %s is %s", e.ID, e.Status)
	}
	if now.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "finalization time must be set")
	}
	e.Status = StatusFinalized
	e.FinalizedAt = now
	return nil
}

// TransferTo changes the owner. Allowed in every status.
func (e *Expenditure) TransferTo(newOwner id.Address) error {
	if newOwner.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "new owner is required")
	}
	e.Owner = newOwner
	return nil
}

// FinalizedTimestamp is FinalizedAt in unix seconds, or zero.
func (e *Expenditure) FinalizedTimestamp() int64 {
	if e.FinalizedAt.IsZero() {
		return 0
	}
	return e.FinalizedAt.Unix()
}

// AssociationType names what a funding pot belongs to.
type AssociationType string

const (
	AssociationDomain      AssociationType = "domain"
	AssociationExpenditure AssociationType = "expenditure"
)

func (t AssociationType) IsValid() bool {
	return t == AssociationDomain || t == AssociationExpenditure
}

// FundingPot is a balance container attached to a domain or an expenditure.
type FundingPot struct {
	ID             id.FundingPotID
	AssociatedType AssociationType
	AssociatedID   uint64
}

// PotAsset is one asset row of a funding pot.
type PotAsset struct {
	Asset     id.Address
	Balance   id.Amount
	Committed id.Amount
}

// IsFunded reports whether the balance covers the committed total.
func (a PotAsset) IsFunded() bool {
	return a.Balance.Cmp(a.Committed) >= 0
}

// Shortfall is how much the balance lacks to cover the committed total.
func (a PotAsset) Shortfall() id.Amount {
	if a.IsFunded() {
		return id.Zero()
	}
	return a.Committed.Sub(a.Balance)
}

// FundingPotDetails is a pot with all of its asset rows.
type FundingPotDetails struct {
	FundingPot
	Assets []PotAsset
}

// FundingPotAsset is one asset of a funding pot as seen by readers.
type FundingPotAsset struct {
	FundingPotID id.FundingPotID
	PotAsset
	Funded bool
}

// Payout is a recipient's entitlement in one asset.
type Payout struct {
	Asset  id.Address
	Amount id.Amount
}

// Recipient is the per-expenditure record of one payee.
type Recipient struct {
	Account id.Address
	Skills  []id.SkillID
	Payouts []Payout
}

// HasSkill reports whether skill is already in the recipient's set.
func (r *Recipient) HasSkill(skill id.SkillID) bool {
	for _, s := range r.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// ClaimResult describes a settled claim. A zero Payout means there was
// nothing to claim.
type ClaimResult struct {
	ExpenditureID id.ExpenditureID
	Recipient     id.Address
	Asset         id.Address
	Payout        id.Amount
	Fee           id.Amount
	Net           id.Amount
}

// SplitFee divides payout into the network fee and the net amount. The fee
// is payout/feeInverse truncated toward zero.
func SplitFee(payout id.Amount, feeInverse uint64) (fee, net id.Amount) {
	fee = payout.Quo(feeInverse)
	return fee, payout.Sub(fee)
}
