package config

import "flag"

// parseFlags defines the global flags on fs and parses args.
// Flags not given keep the value loaded from files and environment.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	// Storage
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Storage backend (file|memory|mysql)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory holding the snapshot file")
	fs.StringVar(&cfg.Key, "key", cfg.Key, "Storage key of the snapshot")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Snapshot format (json|yaml|toml)")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "MySQL DSN for the mysql backend")
	fs.IntVar(&cfg.TimeoutSeconds, "timeout", cfg.TimeoutSeconds, "Storage timeout in seconds")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|json|logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller location in logs")

	return fs.Parse(args)
}
