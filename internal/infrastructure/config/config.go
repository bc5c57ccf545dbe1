// Package config loads the backfill job configuration from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/fx-ledger-backfill/internal/apperrors"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Ledger backends
const (
	BackendSheets = "sheets"
	BackendBadger = "badger"
	BackendXLSX   = "xlsx"
)

// Partial row policies
const (
	PartialRowsSkip = "skip"
	PartialRowsFill = "fill"
)

// Config holds application configuration.
type Config struct {
	APIKey            string
	ServiceAccountKey []byte
	SpreadsheetName   string
	SpreadsheetID     string
	RatesBaseURL      string
	BaseCurrency      string
	Currencies        []string
	RetentionDays     int
	CleanupEnabled    bool
	PartialRows       string
	LedgerBackend     string
	LedgerPath        string
	DryRun            bool
	Schedule          string
	HTTPTimeout       time.Duration
	LogLevel          string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("API_KEY", "")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_KEY", "")
	v.SetDefault("SPREADSHEET_NAME", "spread_sheet")
	v.SetDefault("SPREADSHEET_ID", "")
	v.SetDefault("RATES_BASE_URL", "https://openexchangerates.org/api")
	v.SetDefault("BASE_CURRENCY", "HKD")
	v.SetDefault("CURRENCIES", "CHF,DKK,EUR,NOK,SEK,USD,CNY")
	v.SetDefault("RETENTION_DAYS", 400)
	v.SetDefault("CLEANUP_ENABLED", true)
	v.SetDefault("PARTIAL_ROWS", PartialRowsSkip)
	v.SetDefault("LEDGER_BACKEND", BackendSheets)
	v.SetDefault("LEDGER_PATH", "")
	v.SetDefault("DRY_RUN", false)
	v.SetDefault("SCHEDULE", "")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIKey:          strings.TrimSpace(v.GetString("API_KEY")),
		SpreadsheetName: v.GetString("SPREADSHEET_NAME"),
		SpreadsheetID:   v.GetString("SPREADSHEET_ID"),
		RatesBaseURL:    v.GetString("RATES_BASE_URL"),
		BaseCurrency:    strings.ToUpper(strings.TrimSpace(v.GetString("BASE_CURRENCY"))),
		Currencies:      parseCurrencies(v.GetString("CURRENCIES")),
		RetentionDays:   v.GetInt("RETENTION_DAYS"),
		CleanupEnabled:  v.GetBool("CLEANUP_ENABLED"),
		PartialRows:     strings.ToLower(strings.TrimSpace(v.GetString("PARTIAL_ROWS"))),
		LedgerBackend:   strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_BACKEND"))),
		LedgerPath:      v.GetString("LEDGER_PATH"),
		DryRun:          v.GetBool("DRY_RUN"),
		Schedule:        strings.TrimSpace(v.GetString("SCHEDULE")),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}

	if cfg.APIKey == "" {
		return nil, configError("API_KEY environment variable not set")
	}

	timeout, err := time.ParseDuration(v.GetString("HTTP_TIMEOUT"))
	if err != nil || timeout < 0 {
		return nil, configError("invalid HTTP_TIMEOUT %q", v.GetString("HTTP_TIMEOUT"))
	}
	cfg.HTTPTimeout = timeout

	switch cfg.LedgerBackend {
	case BackendSheets:
		key := strings.TrimSpace(v.GetString("GOOGLE_SERVICE_ACCOUNT_KEY"))
		if key == "" {
			return nil, configError("GOOGLE_SERVICE_ACCOUNT_KEY environment variable not set")
		}
		if !json.Valid([]byte(key)) {
			return nil, configError("GOOGLE_SERVICE_ACCOUNT_KEY is not valid JSON")
		}
		cfg.ServiceAccountKey = []byte(key)
		if cfg.SpreadsheetID == "" && cfg.SpreadsheetName == "" {
			return nil, configError("SPREADSHEET_NAME or SPREADSHEET_ID must be set")
		}
	case BackendBadger:
		if cfg.LedgerPath == "" {
			cfg.LedgerPath = "data/ledger"
		}
	case BackendXLSX:
		if cfg.LedgerPath == "" {
			cfg.LedgerPath = "ledger.xlsx"
		}
	default:
		return nil, configError("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}

	if cfg.BaseCurrency == "" {
		return nil, configError("BASE_CURRENCY must not be empty")
	}
	if len(cfg.Currencies) == 0 {
		return nil, configError("CURRENCIES must list at least one currency")
	}
	if cfg.RetentionDays <= 0 {
		return nil, configError("RETENTION_DAYS must be positive, got %d", cfg.RetentionDays)
	}
	if cfg.PartialRows != PartialRowsSkip && cfg.PartialRows != PartialRowsFill {
		return nil, configError("PARTIAL_ROWS must be %q or %q, got %q", PartialRowsSkip, PartialRowsFill, cfg.PartialRows)
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, configError("invalid SCHEDULE %q: %v", cfg.Schedule, err)
		}
	}

	return cfg, nil
}

// parseCurrencies splits a comma separated list, keeping order and dropping duplicates
func parseCurrencies(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(s, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperrors.ErrConfiguration, fmt.Sprintf(format, args...))
}
