package analysis

import (
	"os"
	"strconv"
)

// Config holds connection and polling settings for the AI acceptance
// analysis service.
type Config struct {
	Endpoint       string
	PollIntervalMs int
	BudgetMs       int // hard wall-clock ceiling for a full acceptance analysis
}

// DefaultConfig returns a Config with sensible defaults: poll every two
// seconds, give up after 90 seconds.
func DefaultConfig() Config {
	return Config{
		Endpoint:       "http://localhost:8710",
		PollIntervalMs: 2000,
		BudgetMs:       90000,
	}
}

// LoadConfig reads analysis configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("RENOGUARD_ANALYSIS_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("RENOGUARD_ANALYSIS_POLL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollIntervalMs = n
		}
	}
	if v := os.Getenv("RENOGUARD_ANALYSIS_BUDGET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BudgetMs = n
		}
	}
	return cfg
}
