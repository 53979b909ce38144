package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasklist configuration file
# Values can be overridden by environment variables (TASKLIST_*) or CLI flags

# Storage backend: file, memory, or mysql
backend = "file"

# Directory holding the snapshot file (supports ~ and $VAR expansion)
data_dir = "~/.tasklist"

# Key the snapshot is stored under
key = "tasks"

# Snapshot encoding: json, yaml, or toml
format = "json"

# MySQL connection string (backend = "mysql")
# dsn = "user:password@tcp(127.0.0.1:3306)/tasklist"

# Per-call storage timeout in seconds (0 disables)
timeout_seconds = 5

# Logging: debug, info, warn, error / text, json, logfmt
log_level = "info"
log_format = "text"
log_timestamps = false
log_caller = false
`
}
