package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"tablestakes/internal/adapters/http/middleware"
	"tablestakes/internal/adapters/http/routes"
	"tablestakes/internal/adapters/persistence/memory"
	"tablestakes/internal/adapters/persistence/models"
	"tablestakes/internal/adapters/persistence/repositories"
	"tablestakes/internal/adapters/persistence/sqlite"
	"tablestakes/internal/config"
	"tablestakes/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Open the snapshot store
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer closeStore()

	// Writes are announced to SSE watchers
	hub := services.NewSnapshotHub()
	catalog := services.NewBroadcastCatalog(store, hub)

	// Start Cron Service for expiry sweeps
	cronService := services.NewCronService(catalog, cfg.Store.ExpirySweepSpec)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "tablestakes v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, catalog, hub, cfg)

	// Graceful shutdown
	go gracefulShutdown(app, hub)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s, STORE: %s]", cfg.Port, cfg.AppMode, cfg.Store.Driver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// openStore builds the snapshot catalog selected by STORE_DRIVER
func openStore(cfg *config.Config) (services.SnapshotCatalog, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("✅ SQLite store opened at %s", cfg.Store.SQLitePath)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("❌ Error closing SQLite store: %v", err)
			}
		}, nil

	case config.DriverMemory:
		log.Println("⚠️ Using in-memory store, snapshots are lost on restart")
		return memory.NewStore(), func() {}, nil

	default:
		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := models.AutoMigrate(db); err != nil {
			config.CloseDatabase()
			return nil, nil, err
		}
		log.Println("✅ Database migration completed")
		return repositories.NewSnapshotRepository(db), func() {
			if err := config.CloseDatabase(); err != nil {
				log.Printf("❌ Error closing database: %v", err)
			}
		}, nil
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, hub *services.SnapshotHub) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	hub.Close()
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
