package backend

import (
	"os"
	"strconv"
)

// Config holds connection settings for the construction backend.
type Config struct {
	BaseURL    string
	TimeoutMs  int // per-request budget for status writes and reads
	MaxRetries int // additional attempts after the first failure
}

// DefaultConfig returns a Config with sensible defaults. The 10s write
// budget matches the hard ceiling for a simple stage-status push.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8700",
		TimeoutMs:  10000,
		MaxRetries: 1,
	}
}

// LoadConfig reads backend configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("RENOGUARD_API"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("RENOGUARD_API_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("RENOGUARD_API_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	return cfg
}
