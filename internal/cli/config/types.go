// Package config provides configuration management for the reclinepreview CLI.
//
// The configuration types live in internal/config and are re-exported here
// via type aliases so commands only import this package.
package config

import (
	sharedcfg "github.com/leapstack-labs/reclinepreview/internal/config"
)

// Config is an alias for the shared host configuration.
type Config = sharedcfg.Config

// ServerConfig is an alias for the shared UI server configuration.
type ServerConfig = sharedcfg.ServerConfig

// Config file names searched in the working directory, in order.
const (
	ConfigFileYAML = "reclinepreview.yaml"
	ConfigFileYML  = "reclinepreview.yml"
)

// EnvPrefix prefixes environment variables read into the configuration.
const EnvPrefix = "RECLINE_"

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultStateFile = sharedcfg.DefaultStatePath
	DefaultOutput    = sharedcfg.DefaultOutput
	DefaultPort      = sharedcfg.DefaultPort
)
