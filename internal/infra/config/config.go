package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Notification channel identifiers.
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string
	RedisURL    string // Optional; empty means in-process mapping cache

	LogLevel    string
	Environment string
	MetricsAddr string

	CronSpecDispatch    string // Cadence of the scheduling driver
	PassTimeout         time.Duration
	SendTimeout         time.Duration
	LookupTimeout       time.Duration
	DispatchConcurrency int

	NotifyChannel string // "email" or "telegram"

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	TelegramToken string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL") // Optional

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}

	cfg.CronSpecDispatch = os.Getenv("CRON_SPEC_DISPATCH")
	if cfg.CronSpecDispatch == "" {
		cfg.CronSpecDispatch = "@every 1m" // Default: check for due records every minute
	}

	cfg.PassTimeout, err = durationFromEnv("PASS_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.SendTimeout, err = durationFromEnv("SEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.LookupTimeout, err = durationFromEnv("LOOKUP_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	concurrencyStr := os.Getenv("DISPATCH_CONCURRENCY")
	if concurrencyStr == "" {
		cfg.DispatchConcurrency = 4
	} else {
		cfg.DispatchConcurrency, err = strconv.Atoi(concurrencyStr)
		if err != nil || cfg.DispatchConcurrency < 1 {
			return nil, fmt.Errorf("invalid DISPATCH_CONCURRENCY: %q", concurrencyStr)
		}
	}

	cfg.NotifyChannel = strings.ToLower(os.Getenv("NOTIFY_CHANNEL"))
	if cfg.NotifyChannel == "" {
		cfg.NotifyChannel = ChannelEmail
	}

	switch cfg.NotifyChannel {
	case ChannelEmail:
		cfg.SMTPHost = os.Getenv("SMTP_HOST")
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is not set")
		}
		cfg.SMTPPort = os.Getenv("SMTP_PORT")
		if cfg.SMTPPort == "" {
			cfg.SMTPPort = "25"
		}
		cfg.SMTPFrom = os.Getenv("SMTP_FROM")
		if cfg.SMTPFrom == "" {
			return nil, fmt.Errorf("SMTP_FROM is not set")
		}
		cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
		cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	case ChannelTelegram:
		cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid NOTIFY_CHANNEL: %q (expected %q or %q)", cfg.NotifyChannel, ChannelEmail, ChannelTelegram)
	}

	return cfg, nil
}

func durationFromEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return d, nil
}
