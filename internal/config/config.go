package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kjannette/marketpulse/internal/models"
)

type Config struct {
	// Secrets (from .env)
	FREDAPIKey      string `env:"FRED_API_KEY" validate:"required"`
	APIKey          string `env:"API_KEY"`
	CORSAllowOrigin string `env:"CORS_ALLOW_ORIGIN" default:"*"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" validate:"omitempty,url"`
	DBHost      string `env:"DB_HOST" default:"localhost" validate:"required_without=DatabaseURL"`
	DBPort      int    `env:"DB_PORT" default:"5432" validate:"min=1,max=65535"`
	DBName      string `env:"DB_NAME" default:"marketpulse" validate:"required_without=DatabaseURL"`
	DBUser      string `env:"DB_USER" default:"postgres"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" default:"10" validate:"min=1"`

	// Scheduling
	DailyInterval   time.Duration `env:"DAILY_INTERVAL" default:"24h" validate:"min=1s"`
	MonthlyEnabled  bool          `env:"MONTHLY_ENABLED" default:"true"`
	MonthlySchedule string        `env:"MONTHLY_SCHEDULE"`

	// Retry
	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" default:"3" validate:"min=1"`
	RetryDelay       time.Duration `env:"RETRY_DELAY" default:"30s" validate:"min=0"`

	// Sources
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" default:"30s" validate:"min=1s"`
	SourceRateLimit int           `env:"SOURCE_RATE_LIMIT" default:"5" validate:"min=0"`
	FREDSeries      []string      `env:"FRED_SERIES" validate:"min=1,dive,required"`
	Assets          []string      `env:"ASSETS" validate:"min=1,dive,required"`

	// API
	APIEnabled bool `env:"API_ENABLED" default:"true"`
	APIPort    int  `env:"API_PORT" default:"3001" validate:"min=1,max=65535"`

	// Notifications
	WebhookURL string `env:"WEBHOOK_URL" validate:"omitempty,url"`
	NotifyName string `env:"NOTIFY_NAME" default:"MarketPulse"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat     string `env:"LOG_FORMAT" default:"json" validate:"oneof=json console"`
	LogOutput     string `env:"LOG_OUTPUT" default:"stdout" validate:"required"`
	LogTimeFormat string `env:"LOG_TIME_FORMAT"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	// Secrets
	cfg.FREDAPIKey = envStr("FRED_API_KEY", cfg.FREDAPIKey)
	cfg.APIKey = envStr("API_KEY", cfg.APIKey)
	cfg.CORSAllowOrigin = envStr("CORS_ALLOW_ORIGIN", cfg.CORSAllowOrigin)

	// Database
	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBHost = envStr("DB_HOST", cfg.DBHost)
	cfg.DBPort = envInt("DB_PORT", cfg.DBPort)
	cfg.DBName = envStr("DB_NAME", cfg.DBName)
	cfg.DBUser = envStr("DB_USER", cfg.DBUser)
	cfg.DBPassword = envStr("DB_PASSWORD", cfg.DBPassword)
	cfg.DBMaxConns = envInt("DB_MAX_CONNS", cfg.DBMaxConns)

	// Scheduling
	cfg.DailyInterval = envDuration("DAILY_INTERVAL", cfg.DailyInterval)
	cfg.MonthlyEnabled = envBool("MONTHLY_ENABLED", cfg.MonthlyEnabled)
	cfg.MonthlySchedule = envStr("MONTHLY_SCHEDULE", cfg.MonthlySchedule)

	// Retry
	cfg.RetryMaxAttempts = envInt("RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.RetryDelay = envDuration("RETRY_DELAY", cfg.RetryDelay)

	// Sources
	cfg.HTTPTimeout = envDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.SourceRateLimit = envInt("SOURCE_RATE_LIMIT", cfg.SourceRateLimit)
	cfg.FREDSeries = envList("FRED_SERIES", models.Strings(models.FREDSeries()))
	cfg.Assets = envList("ASSETS", models.Strings(models.DefaultAssets()))

	// API
	cfg.APIEnabled = envBool("API_ENABLED", cfg.APIEnabled)
	cfg.APIPort = envInt("API_PORT", cfg.APIPort)

	// Notifications
	cfg.WebhookURL = envStr("WEBHOOK_URL", cfg.WebhookURL)
	cfg.NotifyName = envStr("NOTIFY_NAME", cfg.NotifyName)

	// Logging
	cfg.LogLevel = strings.ToLower(envStr("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(envStr("LOG_FORMAT", cfg.LogFormat))
	cfg.LogOutput = envStr("LOG_OUTPUT", cfg.LogOutput)
	cfg.LogTimeFormat = envStr("LOG_TIME_FORMAT", cfg.LogTimeFormat)

	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

func (c *Config) Validate() error {
	var errs []string

	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			errs = append(errs, describe(e))
		}
	} else if err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if unknown := unknownSymbols(c.Assets); len(unknown) > 0 {
		errs = append(errs, fmt.Sprintf("ASSETS has unknown symbols: %s", strings.Join(unknown, ", ")))
	}
	for _, a := range models.ParseSymbols(c.Assets) {
		if a.YahooTicker() == "" {
			errs = append(errs, fmt.Sprintf("ASSETS entry %s is not a tradable asset", a))
		}
	}

	if unknown := unknownSymbols(c.FREDSeries); len(unknown) > 0 {
		errs = append(errs, fmt.Sprintf("FRED_SERIES has unknown symbols: %s", strings.Join(unknown, ", ")))
	}
	for _, id := range models.ParseSymbols(c.FREDSeries) {
		if !slices.Contains(models.FREDSeries(), id) {
			errs = append(errs, fmt.Sprintf("FRED_SERIES entry %s is not a FRED series", id))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", e.Field(), e.Param(), e.Value())
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s, got %v", e.Field(), e.Tag(), e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", e.Field(), e.Tag())
	}
}

func unknownSymbols(names []string) []string {
	var out []string
	for _, n := range names {
		if !models.MarketSymbol(n).IsKnown() {
			out = append(out, n)
		}
	}
	return out
}

// Warnings lists settings that are valid but probably unintended.
func (c *Config) Warnings() []string {
	var w []string
	if c.APIEnabled && c.APIKey == "" {
		w = append(w, "API_KEY not set, REST API has no authentication")
	}
	if c.RetryDelay == 0 && c.RetryMaxAttempts > 1 {
		w = append(w, "RETRY_DELAY is 0, failed cycles are retried immediately")
	}
	if c.SourceRateLimit == 0 {
		w = append(w, "SOURCE_RATE_LIMIT is 0, outbound requests are not rate limited")
	}
	return w
}

func (c *Config) Print(log zerolog.Logger) {
	log.Info().
		Str("database", c.redactedDSN()).
		Dur("daily_interval", c.DailyInterval).
		Bool("monthly_enabled", c.MonthlyEnabled).
		Str("monthly_schedule", boolLabel(c.MonthlySchedule != "", c.MonthlySchedule, "month boundary")).
		Int("retry_max_attempts", c.RetryMaxAttempts).
		Dur("retry_delay", c.RetryDelay).
		Dur("http_timeout", c.HTTPTimeout).
		Int("source_rate_limit", c.SourceRateLimit).
		Strs("fred_series", c.FREDSeries).
		Strs("assets", c.Assets).
		Str("fred_api_key", boolLabel(c.FREDAPIKey != "", "configured", "not set")).
		Str("webhook", boolLabel(c.WebhookURL != "", "configured", "not set")).
		Bool("api_enabled", c.APIEnabled).
		Int("api_port", c.APIPort).
		Msg("configuration loaded")
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) redactedDSN() string {
	u, err := url.Parse(c.DSN())
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
