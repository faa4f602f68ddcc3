package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds all configuration for the server and the terminal client
type Config struct {
	AppMode            string `env:"APP_MODE"              envDefault:"dev"`
	Port               string `env:"PORT"                  envDefault:"3000"`
	AllowedOrigins     string `env:"ALLOWED_ORIGINS"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"600"`
	Store              StoreConfig
	Client             ClientConfig
	Database           DatabaseConfig
}

// StoreConfig selects and tunes the snapshot store backend
type StoreConfig struct {
	Driver          string        `env:"STORE_DRIVER"      envDefault:"mysql"`
	SQLitePath      string        `env:"STORE_SQLITE_PATH" envDefault:"tablestakes.db"`
	SnapshotTTL     time.Duration `env:"SNAPSHOT_TTL"      envDefault:"24h"`
	ExpirySweepSpec string        `env:"EXPIRY_SWEEP_SPEC" envDefault:"@every 10m"`
	SSEHeartbeat    time.Duration `env:"SSE_HEARTBEAT"     envDefault:"30s"`
}

// ClientConfig holds the terminal client's sync settings
type ClientConfig struct {
	StoreURL           string        `env:"STORE_URL"            envDefault:"http://localhost:3000"`
	PollInterval       time.Duration `env:"POLL_INTERVAL"        envDefault:"1s"`
	HostReconnectAfter time.Duration `env:"HOST_RECONNECT_AFTER" envDefault:"10s"`
	HostTimeout        time.Duration `env:"HOST_TIMEOUT"         envDefault:"60s"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"      envDefault:"5s"`
	BankLoanAmount     int64         `env:"BANK_LOAN_AMOUNT"     envDefault:"300"`
}

// DatabaseConfig holds database configuration. Keys carry the DEV_ or
// PROD_ prefix selected by APP_MODE.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER" envDefault:"root"`
	Password string `env:"DB_PASS"`
	DBName   string `env:"DB_NAME" envDefault:"tablestakes"`
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Trim spaces for Windows compatibility
	cfg.AppMode = strings.TrimSpace(cfg.AppMode)
	if cfg.AppMode != "dev" && cfg.AppMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", cfg.AppMode)
	}

	cfg.Database = DatabaseConfig{}
	if err := env.ParseWithOptions(&cfg.Database, env.Options{Prefix: cfg.modePrefix()}); err != nil {
		return nil, fmt.Errorf("parse database env: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case DriverMySQL, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: '%s' (must be 'mysql', 'sqlite' or 'memory')", cfg.Store.Driver)
	}
	if cfg.Store.SnapshotTTL <= 0 {
		return nil, fmt.Errorf("invalid SNAPSHOT_TTL: %s", cfg.Store.SnapshotTTL)
	}
	if cfg.Client.PollInterval <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %s", cfg.Client.PollInterval)
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", cfg.AppMode)
	return cfg, nil
}

func (c *Config) modePrefix() string {
	if c.IsProd() {
		return "PROD_"
	}
	return "DEV_"
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:3000"
	}
	return c.AllowedOrigins
}
