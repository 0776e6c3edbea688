// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseDSN string
	LogLevel    string

	GeminiAPIKey string
	GeminiModel  string

	JWTSecret string
	JWTTTL    time.Duration

	Stripe StripeConfig

	CORSOrigins        []string
	TrialDays          int
	TrialSweepInterval time.Duration
}

type StripeConfig struct {
	SecretKey         string
	WebhookSecret     string
	PriceIDProMonthly string
	PriceIDProYearly  string
	FrontendURL       string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:         valueOr(getenv("PORT"), "8080"),
		DatabaseDSN:  getenv("DB_DSN_PRIMARY"),
		LogLevel:     valueOr(getenv("LOG_LEVEL"), "info"),
		GeminiAPIKey: getenv("GEMINI_API_KEY"),
		GeminiModel:  valueOr(getenv("GEMINI_MODEL"), "gemini-1.5-flash"),
		JWTSecret:    getenv("JWT_SECRET"),
		Stripe: StripeConfig{
			SecretKey:         getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:     getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDProMonthly: getenv("STRIPE_PRICE_PRO_MONTHLY"),
			PriceIDProYearly:  getenv("STRIPE_PRICE_PRO_YEARLY"),
			FrontendURL:       strings.TrimRight(getenv("FRONTEND_URL"), "/"),
		},
		CORSOrigins: splitList(valueOr(getenv("CORS_ORIGINS"), "http://localhost:3000")),
	}

	ttlHours, err := intOr(getenv("JWT_TTL_HOURS"), 72)
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL_HOURS: %w", err)
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	if cfg.TrialDays, err = intOr(getenv("TRIAL_DAYS"), 14); err != nil {
		return nil, fmt.Errorf("TRIAL_DAYS: %w", err)
	}

	cfg.TrialSweepInterval = time.Hour
	if v := getenv("TRIAL_SWEEP_INTERVAL"); v != "" {
		if cfg.TrialSweepInterval, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("TRIAL_SWEEP_INTERVAL: %w", err)
		}
	}

	return cfg, nil
}

// Validate reports every required setting that is missing.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DB_DSN_PRIMARY is not set"))
	}
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.TrialDays < 0 {
		errs = append(errs, errors.New("TRIAL_DAYS must not be negative"))
	}
	if c.TrialSweepInterval <= 0 {
		errs = append(errs, errors.New("TRIAL_SWEEP_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
