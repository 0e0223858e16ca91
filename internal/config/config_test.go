package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FRED_API_KEY", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.DailyInterval != 24*time.Hour {
		t.Errorf("expected 24h daily interval, got %s", cfg.DailyInterval)
	}
	if cfg.RetryMaxAttempts != 3 || cfg.RetryDelay != 30*time.Second {
		t.Errorf("unexpected retry defaults: %d, %s", cfg.RetryMaxAttempts, cfg.RetryDelay)
	}
	if !cfg.MonthlyEnabled {
		t.Error("expected monthly job enabled by default")
	}
	if len(cfg.Assets) != 7 || len(cfg.FREDSeries) != 9 {
		t.Errorf("unexpected default lists: %d assets, %d series", len(cfg.Assets), len(cfg.FREDSeries))
	}
	if cfg.APIPort != 3001 || cfg.LogFormat != "json" {
		t.Errorf("unexpected api/log defaults: %d %s", cfg.APIPort, cfg.LogFormat)
	}
	t.Logf("DSN: %s", cfg.redactedDSN())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FRED_API_KEY", "abc")
	t.Setenv("DAILY_INTERVAL", "6h")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("ASSETS", "BTC_USD, ETH_USD")
	t.Setenv("MONTHLY_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.DailyInterval != 6*time.Hour {
		t.Errorf("expected 6h, got %s", cfg.DailyInterval)
	}
	if cfg.RetryMaxAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.RetryMaxAttempts)
	}
	if len(cfg.Assets) != 2 || cfg.Assets[1] != "ETH_USD" {
		t.Errorf("unexpected assets: %v", cfg.Assets)
	}
	if cfg.MonthlyEnabled {
		t.Error("expected monthly job disabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected lowercased log level, got %q", cfg.LogLevel)
	}
}

func TestValidate_Failures(t *testing.T) {
	t.Setenv("FRED_API_KEY", "")
	t.Setenv("RETRY_MAX_ATTEMPTS", "0")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("ASSETS", "BTC_USD,DOGE_USD,DFF")
	t.Setenv("FRED_SERIES", "DFF,GDP,BTC_USD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	wants := []string{
		"FRED_API_KEY is required", "RETRY_MAX_ATTEMPTS", "LOG_FORMAT",
		"DOGE_USD", "DFF is not a tradable asset",
		"FRED_SERIES has unknown symbols: GDP", "BTC_USD is not a FRED series",
	}
	for _, want := range wants {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in error, got:\n%s", want, msg)
		}
	}
	t.Logf("Validation error:\n%s", msg)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: 5433, DBName: "pulse", DBUser: "u", DBPassword: "p@ss"}
	if got := cfg.DSN(); got != "postgres://u:p%40ss@db:5433/pulse?sslmode=disable" {
		t.Fatalf("unexpected DSN: %s", got)
	}
	if strings.Contains(cfg.redactedDSN(), "p%40ss") {
		t.Fatalf("password not redacted: %s", cfg.redactedDSN())
	}

	cfg.DatabaseURL = "postgres://other/db"
	if cfg.DSN() != "postgres://other/db" {
		t.Fatalf("DATABASE_URL should win, got %s", cfg.DSN())
	}
}

func TestWarnings(t *testing.T) {
	cfg := &Config{APIEnabled: true, RetryMaxAttempts: 3, SourceRateLimit: 5}
	w := cfg.Warnings()
	if len(w) != 2 {
		t.Fatalf("expected 2 warnings, got %v", w)
	}
}
