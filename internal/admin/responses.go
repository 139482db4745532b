package admin

import (
	"time"

	skillmodels "treasury/internal/skill/models"
	id "treasury/pkg/domain"
	audit "treasury/pkg/platform/audit"
)

// AdministratorsResponse lists a domain's administrators.
type AdministratorsResponse struct {
	DomainID       uint64   `json:"domain_id"`
	Administrators []string `json:"administrators"`
}

func FromAdministrators(domain id.DomainID, admins []id.Address) AdministratorsResponse {
	out := make([]string, 0, len(admins))
	for _, a := range admins {
		out = append(out, a.String())
	}
	return AdministratorsResponse{DomainID: uint64(domain), Administrators: out}
}

type SkillsResponse struct {
	Skills []skillmodels.Skill `json:"skills"`
}

// AuditEventResponse is the HTTP view of one audit event.
type AuditEventResponse struct {
	ID         string            `json:"id"`
	Category   string            `json:"category"`
	Timestamp  time.Time         `json:"timestamp"`
	Actor      string            `json:"actor,omitempty"`
	Subject    string            `json:"subject"`
	Action     string            `json:"action"`
	Decision   string            `json:"decision,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type AuditEventsResponse struct {
	Events []AuditEventResponse `json:"events"`
	Total  int                  `json:"total"`
}

func FromEvents(events []audit.Event) AuditEventsResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			ID:         e.ID.String(),
			Category:   string(e.Category),
			Timestamp:  e.Timestamp,
			Actor:      e.Actor.String(),
			Subject:    e.Subject,
			Action:     e.Action,
			Decision:   e.Decision,
			Reason:     e.Reason,
			RequestID:  e.RequestID,
			Attributes: e.Attributes,
		})
	}
	return AuditEventsResponse{Events: out, Total: len(out)}
}
