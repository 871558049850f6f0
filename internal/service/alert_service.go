package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/pkg/utils"
)

// RaiseAlertInput is the caller-supplied part of a new alert
type RaiseAlertInput struct {
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// AlertService writes alerts and announces each change on the stream
type AlertService struct {
	repo      AlertRepository
	publisher domain.ChangePublisher
	logger    *zap.Logger
}

// NewAlertService creates a new alert service.
// publisher may be nil when the store notifies subscribers itself.
func NewAlertService(repo AlertRepository, publisher domain.ChangePublisher, logger *zap.Logger) *AlertService {
	return &AlertService{repo: repo, publisher: publisher, logger: logger}
}

// Raise stores a new active alert
func (s *AlertService) Raise(ctx context.Context, in RaiseAlertInput) (*domain.Alert, error) {
	if in.Type == "" {
		return nil, fmt.Errorf("alerts: %w: type is required", domain.ErrInvalidAlert)
	}
	if !utils.ValidCoordinates(in.Latitude, in.Longitude) {
		return nil, fmt.Errorf("alerts: %w: coordinates %f,%f out of range", domain.ErrInvalidAlert, in.Latitude, in.Longitude)
	}

	created, err := s.repo.InsertAlert(ctx, domain.Alert{
		Type:        in.Type,
		Status:      domain.AlertActive,
		Description: in.Description,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	})
	if err != nil {
		return nil, fmt.Errorf("alerts: failed to insert alert: %w", err)
	}

	s.announce(ctx, "insert")
	return &created, nil
}

// SetStatus moves an alert to resolved, cancelled or back to active
func (s *AlertService) SetStatus(ctx context.Context, id, status string) (*domain.Alert, error) {
	if !domain.ValidAlertStatus(status) {
		return nil, fmt.Errorf("alerts: %w: %q", domain.ErrInvalidStatus, status)
	}

	updated, err := s.repo.UpdateAlertStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("alerts: failed to update alert %s: %w", id, err)
	}

	s.announce(ctx, "update")
	return &updated, nil
}

// announce is best effort; subscribers recover on the next event or refetch
func (s *AlertService) announce(ctx context.Context, op string) {
	if s.publisher == nil {
		return
	}
	ev := domain.ChangeEvent{Entity: domain.EntityAlerts, Op: op, At: time.Now()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish alert change", zap.String("op", op), zap.Error(err))
	}
}
