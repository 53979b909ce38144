package config

import (
	"fmt"
	"os"
)

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TASKLIST_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TASKLIST_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TASKLIST_KEY"); v != "" {
		cfg.Key = v
	}
	if v := os.Getenv("TASKLIST_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("TASKLIST_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("TASKLIST_TIMEOUT"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			cfg.TimeoutSeconds = i
		}
	}

	// Logging configuration
	if v := os.Getenv("TASKLIST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKLIST_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TASKLIST_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
	}
	if v := os.Getenv("TASKLIST_LOG_CALLER"); v != "" {
		cfg.LogCaller = boolFromString(v)
	}
}
