package service

import (
	"github.com/safecircle/backend/internal/domain"
)

// speedThreshold is the speed (m/s) above which the user is considered travelling
const speedThreshold = 5.0

// Night window: [nightStartHour, 24) and [0, nightEndHour)
const (
	nightStartHour = 22
	nightEndHour   = 5
)

// Classifier maps raw signals to an emergency context
type Classifier struct {
	zones domain.ZoneResolver
}

// NewClassifier creates a classifier; zones may be nil when no registry is available
func NewClassifier(zones domain.ZoneResolver) *Classifier {
	return &Classifier{zones: zones}
}

// Classify applies the rules in order; the first match wins.
//  1. inside a home or work zone -> home_emergency
//  2. moving faster than 5 m/s -> travel_emergency
//  3. between 22:00 and 05:00 -> silent_tracking
//  4. otherwise -> travel_emergency
func (c *Classifier) Classify(signals domain.SignalBundle) domain.EmergencyContext {
	if c.inAnchorZone(signals) {
		return domain.HomeEmergency
	}

	switch {
	case signals.Speed > speedThreshold:
		return domain.TravelEmergency
	case signals.Hour >= nightStartHour || signals.Hour < nightEndHour:
		return domain.SilentTracking
	default:
		// Product default when no stronger signal applies
		return domain.TravelEmergency
	}
}

func (c *Classifier) inAnchorZone(signals domain.SignalBundle) bool {
	if c.zones == nil || !signals.HasLocation() {
		return false
	}
	zone, ok := c.zones.ZoneAt(*signals.Latitude, *signals.Longitude)
	return ok && zone.IsAnchor()
}
