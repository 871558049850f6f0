package http

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/internal/service"
	"github.com/safecircle/backend/pkg/utils"
)

// UserIDHeader carries the identity set by the authenticating gateway
const UserIDHeader = "X-User-ID"

// Handler contains all HTTP handlers
type Handler struct {
	triggerSvc    *service.TriggerService
	escalationSvc *service.EscalationService
	alertSync     *service.AlertSynchronizer
	alertSvc      *service.AlertService
	etaSvc        *service.ETAService
	health        domain.HealthChecker
	logger        *zap.Logger
}

// Services groups the dependencies of the HTTP layer
type Services struct {
	Trigger    *service.TriggerService
	Escalation *service.EscalationService
	AlertSync  *service.AlertSynchronizer
	Alerts     *service.AlertService
	ETA        *service.ETAService
	Health     domain.HealthChecker
}

// NewHandler creates a new handler
func NewHandler(svcs Services, logger *zap.Logger) *Handler {
	return &Handler{
		triggerSvc:    svcs.Trigger,
		escalationSvc: svcs.Escalation,
		alertSync:     svcs.AlertSync,
		alertSvc:      svcs.Alerts,
		etaSvc:        svcs.ETA,
		health:        svcs.Health,
		logger:        logger,
	}
}

// Identity copies the gateway-supplied user id into the request context.
// Header values alias the reused request buffer, so the id is copied first.
func Identity(c *fiber.Ctx) error {
	if userID := strings.TrimSpace(c.Get(UserIDHeader)); userID != "" {
		c.SetUserContext(domain.WithUserID(c.UserContext(), fiberutils.CopyString(userID)))
	}
	return c.Next()
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if h.health != nil {
		if err := h.health.Health(c.UserContext()); err != nil {
			h.logger.Warn("Store health check failed", zap.Error(err))
			status = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"status":  status,
		"service": "safecircle-backend",
		"version": "1.0.0",
	})
}

// ClassifyTrigger classifies an emergency trigger and returns its response configuration
func (h *Handler) ClassifyTrigger(c *fiber.Ctx) error {
	var signals domain.SignalBundle
	if err := c.BodyParser(&signals); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if signals.Hour < 0 || signals.Hour > 23 {
		return fiber.NewError(fiber.StatusBadRequest, "hour must be between 0 and 23")
	}
	if signals.Speed < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "speed must not be negative")
	}

	result := h.triggerSvc.Trigger(signals)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// GetPolicies returns the full response policy table
func (h *Handler) GetPolicies(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    service.Policies(),
	})
}

// CreateEscalation routes an incident to an external responder
func (h *Handler) CreateEscalation(c *fiber.Ctx) error {
	var in domain.EscalateInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := h.escalationSvc.Escalate(c.UserContext(), in)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrInvalidEntityID), errors.Is(err, domain.ErrInvalidEntityType),
		errors.Is(err, domain.ErrInvalidTarget):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		return fiber.NewError(fiber.StatusServiceUnavailable, "Failed to create escalation, please try again")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
	})
}

// ListEscalations returns the caller's escalation requests
func (h *Handler) ListEscalations(c *fiber.Ctx) error {
	list, err := h.escalationSvc.FetchMyEscalations(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list escalations", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch escalations")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
		"count":   len(list),
	})
}

// GetAlerts returns the synchronized active alert view
func (h *Handler) GetAlerts(c *fiber.Ctx) error {
	alerts, loading := h.alertSync.Snapshot()

	return c.JSON(domain.AlertsResponse{
		Data:    alerts,
		Loading: loading,
		Count:   len(alerts),
		Success: true,
	})
}

// RefetchAlerts forces a full alert re-fetch and returns the result
func (h *Handler) RefetchAlerts(c *fiber.Ctx) error {
	h.alertSync.Refetch(c.UserContext())
	return h.GetAlerts(c)
}

// RaiseAlert creates a new active alert
func (h *Handler) RaiseAlert(c *fiber.Ctx) error {
	var in service.RaiseAlertInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := h.alertSvc.Raise(c.UserContext(), in)
	switch {
	case errors.Is(err, domain.ErrInvalidAlert):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.Error("Failed to raise alert", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to raise alert")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
	})
}

// UpdateAlertStatus resolves, cancels or reactivates an alert
func (h *Handler) UpdateAlertStatus(c *fiber.Ctx) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	updated, err := h.alertSvc.SetStatus(c.UserContext(), c.Params("id"), body.Status)
	switch {
	case errors.Is(err, domain.ErrInvalidStatus):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Alert not found")
	case err != nil:
		h.logger.Error("Failed to update alert", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to update alert")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    updated,
	})
}

// GetETA returns an arrival estimate between two points given as "lat,lng"
func (h *Handler) GetETA(c *fiber.Ctx) error {
	origin, err := parseCoordinates(c.Query("from"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid from coordinates")
	}
	destination, err := parseCoordinates(c.Query("to"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid to coordinates")
	}

	eta := h.etaSvc.Estimate(c.UserContext(), origin, destination)
	if eta == nil {
		return c.JSON(domain.ETAResponse{
			Success: true,
			Message: "No estimate available",
		})
	}

	return c.JSON(domain.ETAResponse{
		Data:    eta,
		Success: true,
	})
}

// parseCoordinates parses "lat,lng"; an empty value yields nil
func parseCoordinates(raw string) (*domain.Coordinates, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, errors.New("expected lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, err
	}
	if !utils.ValidCoordinates(lat, lng) {
		return nil, errors.New("coordinates out of range")
	}
	return &domain.Coordinates{Latitude: lat, Longitude: lng}, nil
}
