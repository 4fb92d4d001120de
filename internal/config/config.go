package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Backend names accepted in STORE_BACKEND.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendChannel  = "channel"
)

type Config struct {
	TelegramBotToken string
	AdminIDs         []int64
	StoreBackend     string

	// Backend-specific settings
	SettingsFile string // file backend: path of the JSON settings document
	PostgreDSN   string // postgres backend
	DBChannelID  int64  // channel backend: chat used as the settings log

	LogChannelID int64 // optional operational log sink
	GroupLink    string
	MetricsAddr  string // optional prometheus listener, e.g. ":9090"
	LogLevel     string
}

func Load() (*Config, error) {
	// A missing .env file is fine in container deployments where everything
	// comes from real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		StoreBackend:     getEnvOrDefault("STORE_BACKEND", BackendFile),
		SettingsFile:     getEnvOrDefault("SETTINGS_FILE", "data/settings.json"),
		PostgreDSN:       os.Getenv("POSTGRE_DSN"),
		GroupLink:        os.Getenv("GROUP_LINK"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.AdminIDs, err = parseIDList(os.Getenv("ADMIN_IDS")); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}
	if cfg.DBChannelID, err = parseOptionalID(os.Getenv("DB_CHANNEL_ID")); err != nil {
		return nil, fmt.Errorf("invalid DB_CHANNEL_ID: %w", err)
	}
	if cfg.LogChannelID, err = parseOptionalID(os.Getenv("LOG_CHANNEL_ID")); err != nil {
		return nil, fmt.Errorf("invalid LOG_CHANNEL_ID: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("required environment variable TELEGRAM_BOT_TOKEN is not set")
	}
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("required environment variable ADMIN_IDS is not set")
	}

	switch c.StoreBackend {
	case BackendFile:
		if c.SettingsFile == "" {
			return fmt.Errorf("SETTINGS_FILE must be set for the file backend")
		}
	case BackendPostgres:
		if c.PostgreDSN == "" {
			return fmt.Errorf("POSTGRE_DSN must be set for the postgres backend")
		}
	case BackendChannel:
		if c.DBChannelID == 0 {
			return fmt.Errorf("DB_CHANNEL_ID must be set for the channel backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want file, postgres or channel)", c.StoreBackend)
	}

	return nil
}

// IsAdmin reports whether uid is in the configured admin list.
func (c *Config) IsAdmin(uid int64) bool {
	for _, id := range c.AdminIDs {
		if id == uid {
			return true
		}
	}
	return false
}

func (c *Config) HasLogChannel() bool {
	return c.LogChannelID != 0
}

func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a numeric id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseOptionalID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
