package config

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"
)

// Default configuration values.
const (
	DefaultStatePath     = ".reclinepreview/state.db"
	DefaultDatastoreType = "duckdb"
	DefaultDatastoreDSN  = ".reclinepreview/datastore.duckdb"
	DefaultPort          = 8765
	DefaultOutput        = "auto" // TTY=text, non-TTY=markdown
	DefaultCacheControl  = "public, max-age=3600"

	// DefaultSessionSecret signs flash cookies when no secret is configured.
	DefaultSessionSecret = "reclinepreview-dev-secret"
)

// Defaults returns the default values keyed like the config file.
func Defaults() map[string]any {
	return map[string]any{
		"state_path":            DefaultStatePath,
		"theme_dir":             "",
		"verbose":               false,
		"output":                DefaultOutput,
		"server.port":           DefaultPort,
		"server.watch":          false,
		"server.minify":         false,
		"server.session_secret": DefaultSessionSecret,
		"server.cache_control":  DefaultCacheControl,
		"datastore.type":        DefaultDatastoreType,
		"datastore.dsn":         DefaultDatastoreDSN,
	}
}

// Default returns a Config holding the default values.
func Default() *Config {
	return &Config{
		StatePath:    DefaultStatePath,
		OutputFormat: DefaultOutput,
		Server: ServerConfig{
			Port:          DefaultPort,
			SessionSecret: DefaultSessionSecret,
			CacheControl:  DefaultCacheControl,
		},
		Datastore: datastore.Config{
			Type: DefaultDatastoreType,
			DSN:  DefaultDatastoreDSN,
		},
	}
}

// ResolvePaths makes the file paths of c absolute against baseDir and
// expands ${VAR} references in the datastore dsn and the session secret.
func (c *Config) ResolvePaths(baseDir string) {
	c.ConfigDir = baseDir
	c.StatePath = resolvePathRelativeTo(c.StatePath, baseDir)
	c.ThemeDir = resolvePathRelativeTo(c.ThemeDir, baseDir)

	c.Server.SessionSecret = ExpandEnvVars(c.Server.SessionSecret)
	c.Datastore.DSN = ExpandEnvVars(c.Datastore.DSN)
	if c.Datastore.Type == DefaultDatastoreType {
		c.Datastore.DSN = resolvePathRelativeTo(c.Datastore.DSN, baseDir)
	}
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func ExpandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}
