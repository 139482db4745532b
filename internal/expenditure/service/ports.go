package service

import (
	"context"

	"treasury/internal/expenditure/models"
	id "treasury/pkg/domain"
	audit "treasury/pkg/platform/audit"
)

// ExpenditureStore persists expenditure records. Get and GetForUpdate return
// sentinel.ErrNotFound for unknown ids.
type ExpenditureStore interface {
	NextID(ctx context.Context) (id.ExpenditureID, error)
	Create(ctx context.Context, exp *models.Expenditure) error
	Get(ctx context.Context, expID id.ExpenditureID) (*models.Expenditure, error)
	GetForUpdate(ctx context.Context, expID id.ExpenditureID) (*models.Expenditure, error)
	Update(ctx context.Context, exp *models.Expenditure) error
	Count(ctx context.Context) (uint64, error)
}

// FundingPotLedger keeps per-pot, per-asset balances and committed payout
// totals. It performs no authorization.
//
// Debit returns sentinel.ErrInsufficient when the balance cannot cover the
// amount. AdjustCommitted returns sentinel.ErrNegativeTotal when the delta
// would take the committed total below zero.
type FundingPotLedger interface {
	NextID(ctx context.Context) (id.FundingPotID, error)
	Create(ctx context.Context, pot *models.FundingPot) error
	Get(ctx context.Context, pot id.FundingPotID) (*models.FundingPot, error)
	FindByAssociation(ctx context.Context, kind models.AssociationType, associatedID uint64) (*models.FundingPot, error)
	Credit(ctx context.Context, pot id.FundingPotID, asset id.Address, amount id.Amount) error
	Debit(ctx context.Context, pot id.FundingPotID, asset id.Address, amount id.Amount) error
	Balance(ctx context.Context, pot id.FundingPotID, asset id.Address) (id.Amount, error)
	CommittedTotal(ctx context.Context, pot id.FundingPotID, asset id.Address) (id.Amount, error)
	AdjustCommitted(ctx context.Context, pot id.FundingPotID, asset id.Address, delta id.Amount) error
	IsFunded(ctx context.Context, pot id.FundingPotID, asset id.Address) (bool, error)
	// Balances returns every asset row of pot. Inside RunInTx the rows stay
	// locked until the unit of work ends.
	Balances(ctx context.Context, pot id.FundingPotID) ([]models.PotAsset, error)
	Count(ctx context.Context) (uint64, error)
}

// PayoutTable keeps recipient payouts and skills per expenditure. Set
// returns the signed difference between the new and the previous amount.
type PayoutTable interface {
	Get(ctx context.Context, exp id.ExpenditureID, recipient, asset id.Address) (id.Amount, error)
	Set(ctx context.Context, exp id.ExpenditureID, recipient, asset id.Address, amount id.Amount) (id.Amount, error)
	TotalForAsset(ctx context.Context, exp id.ExpenditureID, asset id.Address) (id.Amount, error)
	// Recipient returns an empty record for recipients never written.
	Recipient(ctx context.Context, exp id.ExpenditureID, recipient id.Address) (*models.Recipient, error)
	AddSkill(ctx context.Context, exp id.ExpenditureID, recipient id.Address, skill id.SkillID) error
}

// AssetLedger moves asset balances between accounts. Transfer returns
// sentinel.ErrInsufficient when from cannot cover the amount.
type AssetLedger interface {
	Credit(ctx context.Context, asset, account id.Address, amount id.Amount) error
	Transfer(ctx context.Context, asset, from, to id.Address, amount id.Amount) error
	Balance(ctx context.Context, asset, account id.Address) (id.Amount, error)
}

// Stores is the set of stores bound to one unit of work.
type Stores interface {
	Expenditures() ExpenditureStore
	Pots() FundingPotLedger
	Payouts() PayoutTable
	Assets() AssetLedger
}

// StoreTx runs fn as one atomic unit of work. The context passed to fn
// carries the transaction so collaborators writing through it (the audit
// outbox) join the same commit. Any error returned by fn rolls back every
// effect. View runs fn against a consistent read-only snapshot.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
	View(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// AuthorizationGate answers whether account administers domain.
type AuthorizationGate interface {
	AuthorizeAdministration(ctx context.Context, domain id.DomainID, account id.Address) (bool, error)
}

// SkillRegistry reports the deprecation flag of a catalogued skill.
type SkillRegistry interface {
	IsSkillDeprecated(ctx context.Context, skill id.SkillID) (bool, error)
}

// NetworkParams supplies the fee configuration and the accounts settlement
// moves funds between.
type NetworkParams interface {
	FeeInverse() uint64
	TreasuryAccount() id.Address
	OrganizationAccount() id.Address
}

// AuditPublisher persists ledger events inside the caller's unit of work.
// An error must abort the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SecurityAuditor records access-control events without blocking the caller.
type SecurityAuditor interface {
	Emit(ctx context.Context, event audit.Event)
}
