package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, svcs Services, logger *zap.Logger) {
	handler := NewHandler(svcs, logger)

	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	api := app.Group("/api/v1", Identity)
	{
		// Emergency context
		api.Post("/panic/context", handler.ClassifyTrigger)
		api.Get("/policies", handler.GetPolicies)

		// Escalations
		api.Post("/escalations", handler.CreateEscalation)
		api.Get("/escalations", handler.ListEscalations)

		// Alerts
		api.Get("/alerts", handler.GetAlerts)
		api.Post("/alerts", handler.RaiseAlert)
		api.Post("/alerts/refetch", handler.RefetchAlerts)
		api.Patch("/alerts/:id", handler.UpdateAlertStatus)

		// Routing
		api.Get("/eta", handler.GetETA)
	}
}

// ErrorHandler renders errors as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
