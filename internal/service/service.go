package service

import (
	"github.com/safecircle/backend/internal/domain"
)

// Store interfaces are re-exported from domain for convenience
type (
	EscalationRepository = domain.EscalationRepository
	AlertRepository      = domain.AlertRepository
	ZoneRepository       = domain.ZoneRepository
)
