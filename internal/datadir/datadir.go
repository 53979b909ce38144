// Package datadir provides constants and utilities for the tasklist data directory.
package datadir

import (
	"fmt"
	"path/filepath"
	"regexp"
)

const (
	// Dir is the name of the tasklist state directory under the user's home.
	Dir = ".tasklist"

	// DefaultKey is the storage key the task snapshot is kept under.
	DefaultKey = "tasks"

	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "tasklist.toml"

	// LockSuffix is appended to a snapshot path to name its lock file.
	LockSuffix = ".lock"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateKey rejects keys that cannot be used as a single file name.
func ValidateKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid key %q: use letters, digits, '.', '_' or '-'", key)
	}
	return nil
}

// SnapshotPath returns the file holding key inside dir, e.g. dir/tasks.json.
func SnapshotPath(dir, key, ext string) string {
	name := key
	if ext != "" {
		name += "." + ext
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

// LockPath returns the lock file path for a snapshot path.
func LockPath(snapshotPath string) string {
	return snapshotPath + LockSuffix
}

// ConfigPath returns the config file path within dir.
func ConfigPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, DefaultConfigFile)
}
