// Package config provides the shared configuration types of the preview
// host. The CLI loader in internal/cli/config fills them from defaults,
// the config file, the environment and flags.
package config

import (
	"github.com/leapstack-labs/reclinepreview/internal/datastore"
)

// Config holds all host configuration.
type Config struct {
	StatePath    string           `koanf:"state_path"`
	ThemeDir     string           `koanf:"theme_dir"`
	Verbose      bool             `koanf:"verbose"`
	OutputFormat string           `koanf:"output"`
	Server       ServerConfig     `koanf:"server"`
	Datastore    datastore.Config `koanf:"datastore"`

	// ConfigDir is the directory relative paths were resolved against.
	ConfigDir string `koanf:"-"`
}

// ServerConfig holds configuration for the UI server.
type ServerConfig struct {
	Port          int    `koanf:"port"`
	Watch         bool   `koanf:"watch"`
	Minify        bool   `koanf:"minify"`
	SessionSecret string `koanf:"session_secret"`
	CacheControl  string `koanf:"cache_control"`
}
