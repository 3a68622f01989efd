package config

import (
	"testing"
	"time"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OBA_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("expected an error without OBA_API_KEY")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OBA_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://api.pugetsound.onebusaway.org/api" {
		t.Errorf("base URL = %q", cfg.API.BaseURL)
	}
	if cfg.API.StopsFile != "stops.yml" {
		t.Errorf("stops file = %q", cfg.API.StopsFile)
	}
	if cfg.Maintenance.HistoryRetention != 7*24*time.Hour {
		t.Errorf("history retention = %v", cfg.Maintenance.HistoryRetention)
	}
	if cfg.Maintenance.CleanupInterval != time.Hour {
		t.Errorf("cleanup interval = %v", cfg.Maintenance.CleanupInterval)
	}
	if cfg.StopInfo.RefreshInterval != 24*time.Hour {
		t.Errorf("refresh interval = %v", cfg.StopInfo.RefreshInterval)
	}
	if !cfg.Logging.Console {
		t.Error("console logging should default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OBA_API_KEY", "test-key")
	t.Setenv("OBA_API_URL", "http://localhost:8080/api")
	t.Setenv("HISTORY_RETENTION", "48h")
	t.Setenv("LOG_CONSOLE", "false")
	t.Setenv("LOG_MAX_SIZE_MB", "25")
	t.Setenv("DB_SSLMODE", "require")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080/api" {
		t.Errorf("base URL = %q", cfg.API.BaseURL)
	}
	if cfg.Maintenance.HistoryRetention != 48*time.Hour {
		t.Errorf("history retention = %v", cfg.Maintenance.HistoryRetention)
	}
	if cfg.Logging.Console {
		t.Error("console logging should be off")
	}
	if cfg.Logging.MaxSizeMB != 25 {
		t.Errorf("max size = %d", cfg.Logging.MaxSizeMB)
	}
	if cfg.Database.SSLMode != "require" {
		t.Errorf("sslmode = %q", cfg.Database.SSLMode)
	}
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.example.com",
		Port:     "5433",
		User:     "tracker",
		Password: "secret",
		DBName:   "obatracker",
		SSLMode:  "require",
	}

	want := "host=db.example.com port=5433 user=tracker password=secret dbname=obatracker sslmode=require"
	if got := db.ConnectionString(); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}
