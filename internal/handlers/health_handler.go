package handlers

import (
	"context"
	"errors"

	"canteen/internal/database"
	"canteen/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// Checker performs a connectivity round trip against the store.
type Checker interface {
	Check(ctx context.Context) error
}

// HealthHandler serves liveness and store health probes.
type HealthHandler struct {
	checker Checker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// RegisterRoutes registers the health routes with the Fiber app.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
	router.Get("/ping", h.HandlePing)
}

// HandleHealth always answers 200; an unreachable store is reported in the
// body rather than as a failed request.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	if err := h.checker.Check(c.UserContext()); err != nil {
		logging.FromContext(c.UserContext()).Warn("health check failed", "error", err)
		return c.JSON(fiber.Map{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    healthReason(err),
		})
	}
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"database": "connected",
	})
}

// HandlePing is a liveness probe that never touches the store.
func (h *HealthHandler) HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":      true,
		"message": "pong",
	})
}

// healthReason keeps driver messages, which may name hosts or users, out
// of the public response.
func healthReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "database timed out"
	case errors.Is(err, database.ErrConnection):
		return "database unreachable"
	default:
		return "database query failed"
	}
}
