package domain

// Zone types recognized by the classifier
const (
	ZoneTypeHome = "home"
	ZoneTypeWork = "work"
)

// Zone is a registered circular geofence
type Zone struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"` // meters
	ZoneType  string  `json:"zone_type"`
}

// IsAnchor reports whether the zone is one of the user's anchor points (home or work)
func (z Zone) IsAnchor() bool {
	return z.ZoneType == ZoneTypeHome || z.ZoneType == ZoneTypeWork
}

// Coordinates is a WGS84 point
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
