package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds runtime settings, read from the environment with a .env
// file as fallback.
type Config struct {
	Port          string
	DBPath        string
	LogLevel      string
	SyncCron      string
	// BaseURL is the externally reachable address, used when printing the
	// calendar subscription URL. Defaults to localhost on Port.
	BaseURL       string
	AdminUser     string
	AdminPassword string
}

// Load reads configuration from environment variables and a .env file if
// one is present. Real env variables win over .env values. AdminPassword
// is only consulted on first boot, to create the initial admin account.
func Load() Config {
	// Errors are ignored if the file doesn't exist.
	_ = godotenv.Load()

	cfg := Config{
		Port:          os.Getenv("REBOOK_PORT"),
		DBPath:        os.Getenv("REBOOK_DB_PATH"),
		LogLevel:      os.Getenv("REBOOK_LOG_LEVEL"),
		SyncCron:      os.Getenv("REBOOK_SYNC_CRON"),
		BaseURL:       os.Getenv("REBOOK_BASE_URL"),
		AdminUser:     os.Getenv("REBOOK_ADMIN_USER"),
		AdminPassword: os.Getenv("REBOOK_ADMIN_PASSWORD"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "rebook.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SyncCron == "" {
		cfg.SyncCron = "30 2 * * *" // 02:30 nightly
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.AdminUser == "" {
		cfg.AdminUser = "admin"
	}
	return cfg
}
