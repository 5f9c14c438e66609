package api

import (
	"time"

	"familytree/internal/telemetry"

	"github.com/gofiber/fiber/v2"
)

// Health reports whether the family document storage is reachable.
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := telemetry.ContextFromFiber(c)
	if err := h.members.HealthCheck(ctx); err != nil {
		h.logger.WarnContext(ctx, "Health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "storage unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
	})
}
