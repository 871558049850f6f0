package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/internal/metrics"
)

var (
	almaty  = &domain.Coordinates{Latitude: 43.2389, Longitude: 76.8897}
	airport = &domain.Coordinates{Latitude: 43.3521, Longitude: 77.0405}
)

func routeBody(duration, distance float64, congestion ...string) string {
	quoted := make([]string, len(congestion))
	for i, c := range congestion {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(`{"routes":[{"duration":%g,"distance":%g,"legs":[{"annotation":{"congestion":[%s]}}]}]}`,
		duration, distance, strings.Join(quoted, ","))
}

func newRoutingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/directions/v5/mapbox/driving-traffic/"))
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		assert.Equal(t, "congestion", r.URL.Query().Get("annotations"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func newTestETAService(baseURL, token string) *ETAService {
	s := NewETAService(baseURL, token, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestETA_MissingInputsReturnNil(t *testing.T) {
	srv, hits := newRoutingServer(t, http.StatusOK, routeBody(600, 5000))

	s := newTestETAService(srv.URL, "test-token")
	assert.Nil(t, s.Estimate(context.Background(), nil, airport))
	assert.Nil(t, s.Estimate(context.Background(), almaty, nil))

	noToken := newTestETAService(srv.URL, "")
	assert.Nil(t, noToken.Estimate(context.Background(), almaty, airport))

	assert.EqualValues(t, 0, hits.Load(), "no request is made without both endpoints and a token")
}

func TestETA_Estimate(t *testing.T) {
	srv, hits := newRoutingServer(t, http.StatusOK, routeBody(125, 1830.5, "low", "moderate", "heavy", "low"))
	s := newTestETAService(srv.URL, "test-token")

	eta := s.Estimate(context.Background(), almaty, airport)
	require.NotNil(t, eta)
	assert.Equal(t, 3, eta.DurationMinutes)
	assert.Equal(t, 1830.5, eta.DistanceMeters)
	assert.Equal(t, "10:02", eta.ArrivalTime)
	assert.Equal(t, domain.TrafficModerate, eta.TrafficLevel)
	assert.EqualValues(t, 1, hits.Load())
}

func TestETA_MissingOptionalFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no legs", `{"routes":[{"duration":60,"distance":10}]}`},
		{"no annotation", `{"routes":[{"duration":60,"distance":10,"legs":[{}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newRoutingServer(t, http.StatusOK, tt.body)
			s := newTestETAService(srv.URL, "test-token")

			eta := s.Estimate(context.Background(), almaty, airport)
			require.NotNil(t, eta)
			assert.Equal(t, 1, eta.DurationMinutes)
			assert.Equal(t, 10.0, eta.DistanceMeters)
			assert.Equal(t, domain.TrafficLight, eta.TrafficLevel)
		})
	}
}

func TestETA_NonJSONBodyCountsAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	t.Cleanup(srv.Close)

	errCount := metrics.ETAEstimatesTotal.WithLabelValues(metrics.ResultError)
	skipCount := metrics.ETAEstimatesTotal.WithLabelValues(metrics.ResultSkipped)
	errorsBefore, skippedBefore := testutil.ToFloat64(errCount), testutil.ToFloat64(skipCount)

	s := newTestETAService(srv.URL, "test-token")
	assert.Nil(t, s.Estimate(context.Background(), almaty, airport))

	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(errCount))
	assert.Equal(t, skippedBefore, testutil.ToFloat64(skipCount))
}

func TestETA_TrafficLevels(t *testing.T) {
	tests := []struct {
		name       string
		congestion []string
		want       string
	}{
		{"four of ten heavy", []string{"heavy", "severe", "heavy", "heavy", "low", "low", "low", "low", "low", "low"}, domain.TrafficHeavy},
		{"two of ten heavy", []string{"heavy", "severe", "low", "low", "low", "low", "low", "low", "low", "moderate"}, domain.TrafficModerate},
		{"none heavy", []string{"low", "moderate", "unknown", "low"}, domain.TrafficLight},
		{"exactly three of ten", []string{"heavy", "heavy", "heavy", "low", "low", "low", "low", "low", "low", "low"}, domain.TrafficModerate},
		{"exactly one of ten", []string{"heavy", "low", "low", "low", "low", "low", "low", "low", "low", "low"}, domain.TrafficLight},
		{"no annotations", nil, domain.TrafficLight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trafficLevel(tt.congestion))
		})
	}
}

func TestETA_FailuresReturnNil(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Not Authorized - Invalid Token"}`},
		{"rate limited", http.StatusTooManyRequests, `{"message":"Too Many Requests"}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"malformed body", http.StatusOK, `{"routes":[`},
		{"no routes", http.StatusOK, `{"routes":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := newRoutingServer(t, tt.status, tt.body)
			s := newTestETAService(srv.URL, "test-token")

			assert.Nil(t, s.Estimate(context.Background(), almaty, airport))
			assert.EqualValues(t, 1, hits.Load(), "failures are not retried")
		})
	}
}

func TestETA_UnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := newTestETAService(url, "test-token")
	assert.Nil(t, s.Estimate(context.Background(), almaty, airport))
}
