package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Config selects and locates a datastore backend.
type Config struct {
	Type string `koanf:"type" json:"type"`
	DSN  string `koanf:"dsn" json:"dsn"`
}

// Factory opens a datastore for dsn.
type Factory func(ctx context.Context, dsn string, logger *slog.Logger) (Datastore, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a datastore factory to the registry.
// Called by backend packages in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a datastore factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// List returns all registered datastore names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the datastore described by cfg.
// The logger is passed to the backend (nil uses discard logger).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Datastore, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("datastore type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownDatastoreError{
			Type:      cfg.Type,
			Available: List(),
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(ctx, cfg.DSN, logger)
}

// UnknownDatastoreError is returned when an unknown datastore type is requested.
type UnknownDatastoreError struct {
	Type      string
	Available []string
}

func (e *UnknownDatastoreError) Error() string {
	return fmt.Sprintf("unknown datastore type %q\nAvailable datastores: %s\nHint: Check datastore.type in reclinepreview.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
