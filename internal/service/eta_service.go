package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/internal/metrics"
)

// DefaultRoutingBaseURL is the Mapbox-compatible directions API
const DefaultRoutingBaseURL = "https://api.mapbox.com"

// Share of heavy segments above which traffic is classified
const (
	heavyTrafficShare    = 0.3
	moderateTrafficShare = 0.1
)

// RouteResponse is the subset of the directions API response we read
type RouteResponse struct {
	Routes []struct {
		Duration float64 `json:"duration"` // seconds
		Distance float64 `json:"distance"` // meters
		Legs     []struct {
			Annotation struct {
				Congestion []string `json:"congestion"`
			} `json:"annotation"`
		} `json:"legs"`
	} `json:"routes"`
}

// ETAService estimates arrival time and traffic level via a routing service
type ETAService struct {
	accessToken string
	httpClient  *resty.Client
	logger      *zap.Logger
	now         func() time.Time
}

// NewETAService creates a new ETA service. An empty access token disables estimates.
func NewETAService(baseURL, accessToken string, logger *zap.Logger) *ETAService {
	if baseURL == "" {
		baseURL = DefaultRoutingBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &ETAService{
		accessToken: accessToken,
		httpClient:  client,
		logger:      logger,
		now:         time.Now,
	}
}

// Estimate returns an arrival estimate or nil when none is available.
// Missing endpoints, a missing token, transport and parse failures all yield nil.
func (s *ETAService) Estimate(ctx context.Context, origin, destination *domain.Coordinates) *domain.ETAResult {
	if origin == nil || destination == nil || s.accessToken == "" {
		metrics.ETAEstimatesTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		return nil
	}

	path := fmt.Sprintf("/directions/v5/mapbox/driving-traffic/%f,%f;%f,%f",
		origin.Longitude, origin.Latitude, destination.Longitude, destination.Latitude)

	var route RouteResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"access_token": s.accessToken,
			"annotations":  "congestion",
			"overview":     "false",
		}).
		SetResult(&route).
		ForceContentType("application/json").
		Get(path)
	if err != nil {
		// transport failure or a body that is not a route document
		metrics.ETAEstimatesTotal.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("Routing API call failed", zap.Error(err))
		return nil
	}
	if resp.IsError() {
		metrics.ETAEstimatesTotal.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("Routing API returned error", zap.Int("status_code", resp.StatusCode()))
		return nil
	}
	if len(route.Routes) == 0 {
		metrics.ETAEstimatesTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		s.logger.Debug("Routing API returned no routes")
		return nil
	}

	first := route.Routes[0]
	var congestion []string
	if len(first.Legs) > 0 {
		congestion = first.Legs[0].Annotation.Congestion
	}

	metrics.ETAEstimatesTotal.WithLabelValues(metrics.ResultOK).Inc()
	return buildETA(first.Duration, first.Distance, congestion, s.now())
}

func buildETA(durationSeconds, distanceMeters float64, congestion []string, now time.Time) *domain.ETAResult {
	arrival := now.Add(time.Duration(durationSeconds * float64(time.Second)))
	return &domain.ETAResult{
		DurationMinutes: int(math.Ceil(durationSeconds / 60)),
		DistanceMeters:  distanceMeters,
		ArrivalTime:     arrival.Format("15:04"),
		TrafficLevel:    trafficLevel(congestion),
	}
}

// trafficLevel discretizes congestion annotations by the share of heavy or severe segments
func trafficLevel(congestion []string) string {
	total := float64(len(congestion))
	heavy := 0
	for _, c := range congestion {
		if c == "heavy" || c == "severe" {
			heavy++
		}
	}

	switch {
	case float64(heavy) > heavyTrafficShare*total:
		return domain.TrafficHeavy
	case float64(heavy) > moderateTrafficShare*total:
		return domain.TrafficModerate
	default:
		return domain.TrafficLight
	}
}
