package domain

import "fmt"

// SignalBundle is the raw input to context classification.
// Latitude and Longitude are optional; Speed is in meters/second and
// Hour is the local hour of day (0-23).
type SignalBundle struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Speed     float64  `json:"speed"`
	Hour      int      `json:"hour"`
}

// HasLocation reports whether both coordinates are present
func (s SignalBundle) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// EmergencyContext is the classified operational context of an emergency
type EmergencyContext uint8

const (
	HomeEmergency EmergencyContext = iota
	TravelEmergency
	SilentTracking

	// contextCount must stay last
	contextCount
)

var contextNames = [...]string{
	HomeEmergency:   "home_emergency",
	TravelEmergency: "travel_emergency",
	SilentTracking:  "silent_tracking",
}

// every context needs a wire name
var _ = [1]struct{}{}[len(contextNames)-int(contextCount)]

// AllContexts returns every EmergencyContext value in declaration order
func AllContexts() []EmergencyContext {
	out := make([]EmergencyContext, 0, contextCount)
	for c := EmergencyContext(0); c < contextCount; c++ {
		out = append(out, c)
	}
	return out
}

// NumContexts is the number of defined emergency contexts
const NumContexts = int(contextCount)

func (c EmergencyContext) String() string {
	if c < contextCount {
		return contextNames[c]
	}
	return fmt.Sprintf("EmergencyContext(%d)", uint8(c))
}

// Valid reports whether c is a defined context
func (c EmergencyContext) Valid() bool {
	return c < contextCount
}

// MarshalText encodes the context as its wire name
func (c EmergencyContext) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("domain: unknown emergency context %d", uint8(c))
	}
	return []byte(contextNames[c]), nil
}

// UnmarshalText decodes a wire name
func (c *EmergencyContext) UnmarshalText(text []byte) error {
	parsed, err := ParseEmergencyContext(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseEmergencyContext maps a wire name to its EmergencyContext
func ParseEmergencyContext(name string) (EmergencyContext, error) {
	for i, n := range contextNames {
		if n == name {
			return EmergencyContext(i), nil
		}
	}
	return 0, fmt.Errorf("domain: unknown emergency context %q", name)
}

// ResponseConfig describes how the app responds in a given context
type ResponseConfig struct {
	EnableRecording        bool   `json:"enable_recording"`
	EnableLocationTracking bool   `json:"enable_location_tracking"`
	SilentMode             bool   `json:"silent_mode"`
	NotifyAuthorities      bool   `json:"notify_authorities"`
	BroadcastRadiusMeters  int    `json:"broadcast_radius_meters"`
	Label                  string `json:"label"`
}

// TriggerResult pairs a classified context with its response configuration
type TriggerResult struct {
	Context EmergencyContext `json:"context"`
	Config  ResponseConfig   `json:"config"`
}
