package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	HTTPPort       string
	DatabaseURL    string
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string
	AppBaseURL     string // prefix for deep links embedded in notifications and emails
	LogLevel       string
	Environment    string

	CronSpecCycleSweep    string // when due cycles are picked up and instantiated
	CronSpecDeadlineSweep string // daily due-soon/overdue reminder sweep
	CronSpecRetention     string // daily notification retention purge
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.HTTPPort = os.Getenv("HTTP_PORT")
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
	if cfg.SendGridAPIKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY is not set")
	}

	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	if cfg.EmailFrom == "" {
		return nil, fmt.Errorf("EMAIL_FROM is not set")
	}

	cfg.EmailFromName = os.Getenv("EMAIL_FROM_NAME")
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "Performance Reviews"
	}

	cfg.AppBaseURL = strings.TrimRight(os.Getenv("APP_BASE_URL"), "/")
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:3000"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecCycleSweep = os.Getenv("CRON_SPEC_CYCLE_SWEEP")
	if cfg.CronSpecCycleSweep == "" {
		cfg.CronSpecCycleSweep = "0 6 * * *" // Default: 6:00 AM daily
	}

	cfg.CronSpecDeadlineSweep = os.Getenv("CRON_SPEC_DEADLINE_SWEEP")
	if cfg.CronSpecDeadlineSweep == "" {
		cfg.CronSpecDeadlineSweep = "0 9 * * *" // Default: 9:00 AM daily
	}

	cfg.CronSpecRetention = os.Getenv("CRON_SPEC_RETENTION")
	if cfg.CronSpecRetention == "" {
		cfg.CronSpecRetention = "30 3 * * *" // Default: 3:30 AM daily
	}

	return cfg, nil
}
