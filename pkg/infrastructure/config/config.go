// Package config loads runtime configuration from environment variables and
// the static business-data tables (UOM conversion rules, seed BOM) shipped
// as CSV files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration. Epicor credentials are required;
// tuning values fall back to engine defaults when unset.
type Config struct {
	Env  string
	Port string

	EpicorBaseURL  string
	EpicorUsername string
	EpicorPassword string
	EpicorAPIKey   string
	EpicorCompany  string
	EpicorTimeout  time.Duration

	QuoteRef   string
	CustomerID string

	UOMRulesPath string
	SeedBOMPath  string

	LogLevel string
}

// Load reads configuration from environment variables. Missing required
// variables return an error rather than exiting, so the caller owns process
// shutdown.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getenv("APP_ENV", "development"),
		Port:           getenv("APP_PORT", "5000"),
		EpicorCompany:  os.Getenv("EPICOR_COMPANY"),
		EpicorTimeout:  parseDur(getenv("EPICOR_TIMEOUT", "30s")),
		QuoteRef:       getenv("QUOTE_REF", "109209"),
		CustomerID:     os.Getenv("CUSTOMER_ID"),
		UOMRulesPath:   getenv("UOM_RULES_PATH", "data/uom_rules.csv"),
		SeedBOMPath:    getenv("SEED_BOM_PATH", "data/master_bom.csv"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.EpicorBaseURL, err = must("EPICOR_BASE_URL"); err != nil {
		return nil, err
	}
	if cfg.EpicorUsername, err = must("EPICOR_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.EpicorPassword, err = must("EPICOR_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.EpicorAPIKey, err = must("EPICOR_API_KEY"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// must retrieves a required environment variable
func must(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return v, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Atoi is a lenient integer parse for optional numeric env vars; zero means
// "use the default"
func Atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
