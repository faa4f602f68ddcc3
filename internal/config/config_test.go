package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "3000" || cfg.RateLimitPerMinute != 600 {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Store.Driver != DriverMySQL || cfg.Store.SnapshotTTL != 24*time.Hour || cfg.Store.ExpirySweepSpec != "@every 10m" {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	c := cfg.Client
	if c.StoreURL != "http://localhost:3000" || c.PollInterval != time.Second ||
		c.HostReconnectAfter != 10*time.Second || c.HostTimeout != time.Minute ||
		c.RequestTimeout != 5*time.Second || c.BankLoanAmount != 300 {
		t.Errorf("unexpected client defaults: %+v", c)
	}
	if cfg.GetAllowedOrigins() != "*" {
		t.Errorf("dev mode should allow every origin")
	}
}

func TestLoadDatabaseUsesModePrefix(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DEV_DB_HOST", "dev-db")
	t.Setenv("PROD_DB_HOST", "prod-db")
	t.Setenv("PROD_DB_NAME", "stakes")
	t.Setenv("DB_HOST", "unprefixed")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Host != "prod-db" || cfg.Database.DBName != "stakes" || cfg.Database.Port != "3306" {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if !cfg.IsProd() || cfg.IsDev() {
		t.Errorf("expected prod mode")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("STORE_DRIVER", " SQLite ")
	t.Setenv("STORE_SQLITE_PATH", "/tmp/table.db")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "https://table.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.SQLitePath != "/tmp/table.db" {
		t.Errorf("unexpected store config %+v", cfg.Store)
	}
	if cfg.Client.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms poll interval, got %s", cfg.Client.PollInterval)
	}
	if cfg.GetAllowedOrigins() != "https://table.example" {
		t.Errorf("unexpected origins %q", cfg.GetAllowedOrigins())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"mode", "APP_MODE", "staging"},
		{"driver", "STORE_DRIVER", "redis"},
		{"ttl", "SNAPSHOT_TTL", "0s"},
		{"duration syntax", "POLL_INTERVAL", "soon"},
		{"rate limit", "RATE_LIMIT_PER_MINUTE", "lots"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestBuildDSN(t *testing.T) {
	got := buildDSN(DatabaseConfig{Host: "db", Port: "3307", User: "u", Password: "p", DBName: "stakes"})
	want := "u:p@tcp(db:3307)/stakes?charset=utf8mb4&parseTime=True&loc=UTC"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
