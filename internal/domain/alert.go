package domain

import "time"

// Alert statuses
const (
	AlertActive    = "active"
	AlertResolved  = "resolved"
	AlertCancelled = "cancelled"
)

// Alert is a live safety alert visible to the community
type Alert struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description *string   `json:"description,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidAlertStatus reports whether s is a known alert status
func ValidAlertStatus(s string) bool {
	switch s {
	case AlertActive, AlertResolved, AlertCancelled:
		return true
	}
	return false
}

// AlertsResponse wraps the synchronized alert view
type AlertsResponse struct {
	Data    []Alert `json:"data"`
	Loading bool    `json:"loading"`
	Count   int     `json:"count"`
	Success bool    `json:"success"`
}
