package domain

import "time"

// Escalated entity types
const (
	EntityPanicSession   = "panic_session"
	EntityIncidentReport = "incident_report"
	EntityMarker         = "marker"
)

// Escalation targets
const (
	TargetLocalAuthority  = "local_authority"
	TargetPrivateSecurity = "private_security"
	TargetCommunityLeader = "community_leader"
)

// EscalationRequest routes an incident to an external responder.
// Status is assigned and advanced by the store.
type EscalationRequest struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	EntityID           string    `json:"entity_id"`
	EntityType         string    `json:"entity_type"`
	EscalationTarget   string    `json:"escalation_target"`
	Reason             *string   `json:"reason,omitempty"`
	AuthorityContactID *string   `json:"authority_contact_id,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// EscalateInput is the caller-supplied part of an escalation
type EscalateInput struct {
	EntityID           string  `json:"entity_id"`
	EntityType         string  `json:"entity_type"`
	Target             string  `json:"escalation_target"`
	Reason             *string `json:"reason,omitempty"`
	AuthorityContactID *string `json:"authority_contact_id,omitempty"`
}

// ValidEntityType reports whether t can be escalated
func ValidEntityType(t string) bool {
	switch t {
	case EntityPanicSession, EntityIncidentReport, EntityMarker:
		return true
	}
	return false
}

// ValidEscalationTarget reports whether t is a known responder category
func ValidEscalationTarget(t string) bool {
	switch t {
	case TargetLocalAuthority, TargetPrivateSecurity, TargetCommunityLeader:
		return true
	}
	return false
}
