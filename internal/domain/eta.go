package domain

// Traffic levels derived from route congestion annotations
const (
	TrafficLight    = "light"
	TrafficModerate = "moderate"
	TrafficHeavy    = "heavy"
)

// ETAResult is an arrival estimate for an origin/destination pair
type ETAResult struct {
	DurationMinutes int     `json:"duration_minutes"`
	DistanceMeters  float64 `json:"distance_meters"`
	ArrivalTime     string  `json:"arrival_time"` // HH:MM local
	TrafficLevel    string  `json:"traffic_level"`
}

// ETAResponse wraps an estimate with metadata
type ETAResponse struct {
	Data    *ETAResult `json:"data"`
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
}
