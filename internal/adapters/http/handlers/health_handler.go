package handlers

import (
	"tablestakes/internal/core/services"
	"tablestakes/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	catalog services.SnapshotCatalog
	appMode string
	driver  string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(catalog services.SnapshotCatalog, appMode, driver string) *HealthHandler {
	return &HealthHandler{
		catalog: catalog,
		appMode: appMode,
		driver:  driver,
	}
}

// Root handles root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "🚀 tablestakes snapshot store is running",
		"mode":    h.appMode,
		"store":   h.driver,
	})
}

// HealthCheck handles health check
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.catalog.Ping(c.UserContext()); err != nil {
		return response.ServiceUnavailable(c, "store unhealthy: "+err.Error())
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":   "healthy",
			"store": "healthy",
		},
	})
}
