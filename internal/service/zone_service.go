package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/pkg/utils"
)

const earthRadiusMeters = 6371008.8

type indexedZone struct {
	zone domain.Zone
	cap  s2.Cap
}

// ZoneIndex is an in-memory registry of circular zones
type ZoneIndex struct {
	mu     sync.RWMutex
	zones  []indexedZone
	logger *zap.Logger
}

// NewZoneIndex creates an empty zone index
func NewZoneIndex(logger *zap.Logger) *ZoneIndex {
	return &ZoneIndex{logger: logger}
}

// Replace swaps the indexed zones. Zones with a non-positive radius are skipped.
func (z *ZoneIndex) Replace(zones []domain.Zone) {
	indexed := make([]indexedZone, 0, len(zones))
	for _, zone := range zones {
		if zone.Radius <= 0 {
			z.logger.Warn("Skipping zone without radius", zap.String("zone_id", zone.ID))
			continue
		}
		center := s2.PointFromLatLng(s2.LatLngFromDegrees(zone.Latitude, zone.Longitude))
		indexed = append(indexed, indexedZone{
			zone: zone,
			cap:  s2.CapFromCenterAngle(center, s1.Angle(zone.Radius/earthRadiusMeters)),
		})
	}

	z.mu.Lock()
	z.zones = indexed
	z.mu.Unlock()
}

// Len returns the number of indexed zones
func (z *ZoneIndex) Len() int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return len(z.zones)
}

// ZoneAt returns the zone containing the point.
// When zones overlap, the one whose center is nearest wins.
func (z *ZoneIndex) ZoneAt(lat, lng float64) (domain.Zone, bool) {
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))

	z.mu.RLock()
	defer z.mu.RUnlock()

	var (
		best     domain.Zone
		bestDist float64
		found    bool
	)
	for _, iz := range z.zones {
		if !iz.cap.ContainsPoint(p) {
			continue
		}
		d := utils.Haversine(lat, lng, iz.zone.Latitude, iz.zone.Longitude)
		if !found || d < bestDist {
			best, bestDist, found = iz.zone, d, true
		}
	}
	return best, found
}

// Load refreshes the index from a zone repository
func (z *ZoneIndex) Load(ctx context.Context, repo ZoneRepository) error {
	zones, err := repo.ListZones(ctx)
	if err != nil {
		return fmt.Errorf("zones: failed to list zones: %w", err)
	}
	z.Replace(zones)
	z.logger.Info("Zone index loaded", zap.Int("zone_count", z.Len()))
	return nil
}

// LoadZonesGeoJSON parses a FeatureCollection of Point features carrying
// "radius" (meters) and "zone_type" properties.
func LoadZonesGeoJSON(data []byte) ([]domain.Zone, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("zones: failed to parse geojson: %w", err)
	}

	zones := make([]domain.Zone, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			continue
		}
		radius, err := f.PropertyFloat64("radius")
		if err != nil {
			return nil, fmt.Errorf("zones: feature %d: %w", i, err)
		}

		id := f.PropertyMustString("id", "")
		if id == "" && f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		if id == "" {
			id = fmt.Sprintf("zone-%d", i)
		}

		zones = append(zones, domain.Zone{
			ID:        id,
			Name:      f.PropertyMustString("name", ""),
			Latitude:  f.Geometry.Point[1],
			Longitude: f.Geometry.Point[0],
			Radius:    radius,
			ZoneType:  f.PropertyMustString("zone_type", "other"),
		})
	}
	return zones, nil
}
