package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/internal/metrics"
)

// EscalationService creates and lists escalation requests for the current identity
type EscalationService struct {
	repo   EscalationRepository
	logger *zap.Logger
}

// NewEscalationService creates a new escalation service
func NewEscalationService(repo EscalationRepository, logger *zap.Logger) *EscalationService {
	return &EscalationService{repo: repo, logger: logger}
}

// Escalate creates one escalation request owned by the caller.
// Nothing is written when the context carries no identity or the input is invalid.
// The created record is returned as stored; listings are not updated locally.
func (s *EscalationService) Escalate(ctx context.Context, in domain.EscalateInput) (*domain.EscalationRequest, error) {
	userID, ok := domain.UserIDFromContext(ctx)
	if !ok {
		metrics.EscalationsTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		return nil, domain.ErrUnauthenticated
	}
	if in.EntityID == "" {
		return nil, fmt.Errorf("escalation: %w", domain.ErrInvalidEntityID)
	}
	if !domain.ValidEntityType(in.EntityType) {
		return nil, fmt.Errorf("escalation: %w: %q", domain.ErrInvalidEntityType, in.EntityType)
	}
	if !domain.ValidEscalationTarget(in.Target) {
		return nil, fmt.Errorf("escalation: %w: %q", domain.ErrInvalidTarget, in.Target)
	}

	created, err := s.repo.InsertEscalation(ctx, domain.EscalationRequest{
		UserID:             userID,
		EntityID:           in.EntityID,
		EntityType:         in.EntityType,
		EscalationTarget:   in.Target,
		Reason:             in.Reason,
		AuthorityContactID: in.AuthorityContactID,
	})
	if err != nil {
		metrics.EscalationsTotal.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("Failed to create escalation",
			zap.String("user_id", userID),
			zap.String("entity_id", in.EntityID),
			zap.String("entity_type", in.EntityType),
			zap.String("target", in.Target),
			zap.Error(err),
		)
		return nil, fmt.Errorf("escalation: failed to create request: %w", err)
	}

	metrics.EscalationsTotal.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Info("Escalation created",
		zap.String("escalation_id", created.ID),
		zap.String("user_id", userID),
		zap.String("target", created.EscalationTarget),
		zap.String("status", created.Status),
	)
	return &created, nil
}

// FetchMyEscalations returns the caller's requests, newest first.
// Without an identity it returns an empty list.
func (s *EscalationService) FetchMyEscalations(ctx context.Context) ([]domain.EscalationRequest, error) {
	userID, ok := domain.UserIDFromContext(ctx)
	if !ok {
		return []domain.EscalationRequest{}, nil
	}

	list, err := s.repo.ListEscalationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("escalation: failed to list requests: %w", err)
	}
	if list == nil {
		list = []domain.EscalationRequest{}
	}
	return list, nil
}
