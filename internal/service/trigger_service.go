package service

import (
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/internal/metrics"
)

// TriggerService turns an emergency trigger into a response configuration
type TriggerService struct {
	classifier *Classifier
	logger     *zap.Logger
}

// NewTriggerService creates a new trigger service
func NewTriggerService(classifier *Classifier, logger *zap.Logger) *TriggerService {
	return &TriggerService{classifier: classifier, logger: logger}
}

// Trigger classifies the signals and looks up the matching policy
func (s *TriggerService) Trigger(signals domain.SignalBundle) domain.TriggerResult {
	ctx := s.classifier.Classify(signals)
	cfg := ConfigFor(ctx)

	metrics.TriggersTotal.WithLabelValues(ctx.String()).Inc()
	s.logger.Info("Emergency trigger classified",
		zap.String("context", ctx.String()),
		zap.Bool("has_location", signals.HasLocation()),
		zap.Float64("speed", signals.Speed),
		zap.Int("hour", signals.Hour),
		zap.Bool("notify_authorities", cfg.NotifyAuthorities),
		zap.Int("broadcast_radius_m", cfg.BroadcastRadiusMeters),
	)

	return domain.TriggerResult{Context: ctx, Config: cfg}
}
