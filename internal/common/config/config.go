package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	API         APIConfig
	Database    DatabaseConfig
	Logging     LoggingConfig
	Discord     DiscordConfig
	Maintenance MaintenanceConfig
	StopInfo    StopInfoConfig
}

// APIConfig for the OneBusAway REST API
type APIConfig struct {
	BaseURL   string
	Key       string
	StopsFile string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type LoggingConfig struct {
	Level      string
	FilePath   string
	Console    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type DiscordConfig struct {
	WebhookURL string
}

// MaintenanceConfig for sensor state history pruning
type MaintenanceConfig struct {
	HistoryRetention time.Duration
	CleanupInterval  time.Duration
}

// StopInfoConfig for the periodic stop detail refresh
type StopInfoConfig struct {
	RefreshInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL:   getEnv("OBA_API_URL", "https://api.pugetsound.onebusaway.org/api"),
			Key:       getEnv("OBA_API_KEY", ""),
			StopsFile: getEnv("OBA_STOPS_FILE", "stops.yml"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "obatracker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE", "obatracker.log"),
			Console:    getBoolEnv("LOG_CONSOLE", true),
			MaxSizeMB:  getIntEnv("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getIntEnv("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getIntEnv("LOG_MAX_AGE_DAYS", 30),
		},
		Discord: DiscordConfig{
			WebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		},
		Maintenance: MaintenanceConfig{
			HistoryRetention: getDurationEnv("HISTORY_RETENTION", 7*24*time.Hour),
			CleanupInterval:  getDurationEnv("CLEANUP_INTERVAL", time.Hour),
		},
		StopInfo: StopInfoConfig{
			RefreshInterval: getDurationEnv("STOP_INFO_REFRESH_INTERVAL", 24*time.Hour),
		},
	}

	if cfg.API.Key == "" {
		return nil, fmt.Errorf("OBA_API_KEY is required")
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
