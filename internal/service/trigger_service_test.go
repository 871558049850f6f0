package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
)

func TestTrigger_ReturnsMatchingPolicy(t *testing.T) {
	svc := NewTriggerService(NewClassifier(newTestZones()), zap.NewNop())

	home := svc.Trigger(domain.SignalBundle{Latitude: f64(40.7128), Longitude: f64(-74.0060), Hour: 12})
	assert.Equal(t, domain.HomeEmergency, home.Context)
	assert.Equal(t, ConfigFor(domain.HomeEmergency), home.Config)

	silent := svc.Trigger(domain.SignalBundle{Hour: 1})
	assert.Equal(t, domain.SilentTracking, silent.Context)
	assert.False(t, silent.Config.NotifyAuthorities)
	assert.Equal(t, ConfigFor(domain.SilentTracking), silent.Config)
}
