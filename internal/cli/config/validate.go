package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureStateDir creates the directory holding the state database.
func EnsureStateDir(cfg *Config) error {
	if cfg.StatePath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(cfg.StatePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return nil
}
