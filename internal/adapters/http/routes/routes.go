package routes

import (
	"tablestakes/internal/adapters/http/handlers"
	"tablestakes/internal/adapters/http/middleware"
	"tablestakes/internal/config"
	"tablestakes/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, catalog services.SnapshotCatalog, hub *services.SnapshotHub, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(catalog, cfg.AppMode, cfg.Store.Driver)
	snapshotHandler := handlers.NewSnapshotHandler(catalog, cfg.Store.SnapshotTTL)
	eventsHandler := handlers.NewSnapshotEventsHandler(hub, cfg.Store.SSEHeartbeat)

	// Health routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")

	// Snapshot routes
	snapshots := api.Group("/snapshots")
	snapshots.Get("/:key", middleware.NoCacheHeaders(), snapshotHandler.GetSnapshot)
	snapshots.Put("/:key", snapshotHandler.PutSnapshot)
	snapshots.Get("/:key/events", eventsHandler.Stream)

	// Session listing
	api.Get("/sessions", middleware.NoCacheHeaders(), snapshotHandler.ListSessions)
}
