package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/nibzard/tasklist/internal/datadir"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

// Default values.
const (
	DefaultBackend        = BackendFile
	DefaultDataDir        = "~/" + datadir.Dir
	DefaultKey            = datadir.DefaultKey
	DefaultFormat         = "json"
	DefaultTimeoutSeconds = 5
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Config holds the full configuration for tasklist.
type Config struct {
	// Storage
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
	Key     string `toml:"key"`
	Format  string `toml:"format"`

	// MySQL backend
	DSN            string `toml:"dsn"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`

	// Files holds the config files that were applied, in order (computed).
	Files []string `toml:"-"`
}

// Backends returns the supported backend names.
func Backends() []string {
	return []string{BackendFile, BackendMemory, BackendMySQL}
}

// Formats returns the supported snapshot formats.
func Formats() []string {
	return []string{"json", "yaml", "toml"}
}

// Timeout returns the per-call storage timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !contains(Backends(), c.Backend) {
		return fmt.Errorf("invalid backend %q, must be one of: %s", c.Backend, strings.Join(Backends(), ", "))
	}
	format := c.Format
	if format == "yml" {
		format = "yaml"
	}
	if !contains(Formats(), format) {
		return fmt.Errorf("invalid format %q, must be one of: %s", c.Format, strings.Join(Formats(), ", "))
	}
	if c.Key == "" {
		return fmt.Errorf("key is empty")
	}
	if c.Backend == BackendMySQL && c.DSN == "" {
		return fmt.Errorf("backend %q requires a dsn (set dsn, TASKLIST_DSN or --dsn)", BackendMySQL)
	}
	if c.Backend == BackendFile && c.DataDir == "" {
		return fmt.Errorf("backend %q requires a data_dir", BackendFile)
	}
	return nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Backend = DefaultBackend
	cfg.DataDir = DefaultDataDir
	cfg.Key = DefaultKey
	cfg.Format = DefaultFormat
	cfg.TimeoutSeconds = DefaultTimeoutSeconds

	// Logging defaults
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
