package domain

import (
	"context"
	"time"
)

// Entities watched on the change stream
const (
	EntityAlerts      = "alerts"
	EntityEscalations = "escalation_requests"
)

// ChangeEvent signals that rows of an entity changed.
// Op is informational only; subscribers must not rely on it.
type ChangeEvent struct {
	Entity string    `json:"entity"`
	Op     string    `json:"op,omitempty"`
	At     time.Time `json:"at"`
}

// EscalationRepository persists escalation requests
type EscalationRepository interface {
	// InsertEscalation stores a new request and returns it with store-assigned id, status and created_at
	InsertEscalation(ctx context.Context, req EscalationRequest) (EscalationRequest, error)

	// ListEscalationsByUser returns a user's requests, newest first
	ListEscalationsByUser(ctx context.Context, userID string) ([]EscalationRequest, error)
}

// AlertRepository reads and writes alerts
type AlertRepository interface {
	// ListAlertsByStatus returns alerts with the given status, newest first, bounded by limit
	ListAlertsByStatus(ctx context.Context, status string, limit int) ([]Alert, error)

	// InsertAlert stores a new alert
	InsertAlert(ctx context.Context, alert Alert) (Alert, error)

	// UpdateAlertStatus changes an alert's status
	UpdateAlertStatus(ctx context.Context, id, status string) (Alert, error)
}

// ZoneRepository lists registered zones
type ZoneRepository interface {
	ListZones(ctx context.Context) ([]Zone, error)
}

// Subscription is a live change-stream registration
type Subscription interface {
	// Events is closed when the subscription ends
	Events() <-chan ChangeEvent
	Close() error
}

// ChangeStream delivers opaque change notifications per entity
type ChangeStream interface {
	Subscribe(ctx context.Context, entity string) (Subscription, error)
}

// ChangePublisher announces a mutation of an entity
type ChangePublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// ZoneResolver answers point-in-zone lookups
type ZoneResolver interface {
	ZoneAt(lat, lng float64) (Zone, bool)
}

// HealthChecker is implemented by stores that can report connectivity
type HealthChecker interface {
	Health(ctx context.Context) error
}
