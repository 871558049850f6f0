package service

import (
	"github.com/safecircle/backend/internal/domain"
)

// responsePolicies is indexed by EmergencyContext.
// silent_tracking must never notify authorities.
var responsePolicies = [...]domain.ResponseConfig{
	domain.HomeEmergency: {
		EnableRecording:        true,
		EnableLocationTracking: true,
		SilentMode:             false,
		NotifyAuthorities:      true,
		BroadcastRadiusMeters:  1000,
		Label:                  "Home Emergency",
	},
	domain.TravelEmergency: {
		EnableRecording:        true,
		EnableLocationTracking: true,
		SilentMode:             false,
		NotifyAuthorities:      true,
		BroadcastRadiusMeters:  5000,
		Label:                  "Travel Emergency",
	},
	domain.SilentTracking: {
		EnableRecording:        true,
		EnableLocationTracking: true,
		SilentMode:             true,
		NotifyAuthorities:      false,
		BroadcastRadiusMeters:  3000,
		Label:                  "Silent Tracking",
	},
}

// adding a context without a policy breaks the build here
var _ = [1]struct{}{}[len(responsePolicies)-domain.NumContexts]

// ConfigFor returns the response configuration for a context.
// Unknown values fall back to the travel policy.
func ConfigFor(ctx domain.EmergencyContext) domain.ResponseConfig {
	if !ctx.Valid() {
		return responsePolicies[domain.TravelEmergency]
	}
	return responsePolicies[ctx]
}

// Policies returns the full policy table keyed by context name
func Policies() map[string]domain.ResponseConfig {
	out := make(map[string]domain.ResponseConfig, len(responsePolicies))
	for _, c := range domain.AllContexts() {
		out[c.String()] = ConfigFor(c)
	}
	return out
}
