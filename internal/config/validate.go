package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"
)

// OutputFormats lists the accepted values of the output setting.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Datastore.Type != "" {
		if _, ok := datastore.Get(c.Datastore.Type); !ok {
			return &datastore.UnknownDatastoreError{Type: c.Datastore.Type, Available: datastore.List()}
		}
	}
	return nil
}

// ValidateThemeDir checks that the configured theme directory exists.
func (c *Config) ValidateThemeDir() error {
	if c.ThemeDir == "" {
		return nil
	}
	info, err := os.Stat(c.ThemeDir)
	if err != nil {
		return fmt.Errorf("theme directory does not exist: %s\nHint: Remove theme_dir to use the built-in theme", c.ThemeDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("theme_dir is not a directory: %s", c.ThemeDir)
	}
	return nil
}
