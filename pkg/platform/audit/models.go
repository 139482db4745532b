package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "treasury/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryFinancial covers events that move or commit value: deposits,
	// pot moves, payout changes, finalization and claims. These are kept
	// for the lifetime of the ledger.
	CategoryFinancial EventCategory = "financial"

	// CategorySecurity covers authorization denials and role changes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine lifecycle activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	// Actor is the account that performed the action.
	Actor id.Address
	// Subject names the aggregate the action applied to, e.g. "expenditure:7".
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	ClientIP  string
	// Attributes carry action-specific values such as asset and amount.
	Attributes map[string]string
}

type AuditEvent string

const (
	// Expenditure lifecycle
	EventExpenditureCreated     AuditEvent = "expenditure_created"
	EventExpenditureCancelled   AuditEvent = "expenditure_cancelled"
	EventExpenditureTransferred AuditEvent = "expenditure_transferred"
	EventExpenditureFinalized   AuditEvent = "expenditure_finalized"
	EventRecipientSkillSet      AuditEvent = "recipient_skill_set"

	// Value movements
	EventPayoutSet      AuditEvent = "payout_set"
	EventPayoutClaimed  AuditEvent = "payout_claimed"
	EventFundsMoved     AuditEvent = "funds_moved"
	EventFundsDeposited AuditEvent = "funds_deposited"

	// Access control
	EventAuthorizationDenied AuditEvent = "authorization_denied"
	EventRoleGranted         AuditEvent = "role_granted"
	EventRoleRevoked         AuditEvent = "role_revoked"

	// Skill catalogue
	EventSkillAdded      AuditEvent = "skill_added"
	EventSkillDeprecated AuditEvent = "skill_deprecated"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventPayoutSet:            CategoryFinancial,
	EventPayoutClaimed:        CategoryFinancial,
	EventFundsMoved:           CategoryFinancial,
	EventFundsDeposited:       CategoryFinancial,
	EventExpenditureFinalized: CategoryFinancial,

	EventAuthorizationDenied:    CategorySecurity,
	EventRoleGranted:            CategorySecurity,
	EventRoleRevoked:            CategorySecurity,
	EventExpenditureTransferred: CategorySecurity,

	EventExpenditureCreated:   CategoryOperations,
	EventExpenditureCancelled: CategoryOperations,
	EventRecipientSkillSet:    CategoryOperations,
	EventSkillAdded:           CategoryOperations,
	EventSkillDeprecated:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
