package view

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the view types a host offers. Registration happens once at
// startup; lookups may run concurrently afterwards.
type Registry struct {
	mu     sync.RWMutex
	views  map[string]Capability
	logger *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		views:  make(map[string]Capability),
		logger: logger,
	}
}

// Register adds a view type under its Info name.
func (r *Registry) Register(c Capability) error {
	info := c.Info()
	if info.Name == "" {
		return fmt.Errorf("view type has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[info.Name]; exists {
		return fmt.Errorf("view type already registered: %s", info.Name)
	}
	r.views[info.Name] = c

	r.logger.Debug("registered view type",
		slog.String("name", info.Name),
		slog.String("title", info.Title),
		slog.Any("fields", info.Schema.Names()))
	return nil
}

// Get returns the view type registered under name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.views[name]
	return c, ok
}

// Lookup is Get with an UnknownViewError for missing names.
func (r *Registry) Lookup(name string) (Capability, error) {
	if c, ok := r.Get(name); ok {
		return c, nil
	}
	return nil, &UnknownViewError{Type: name, Available: r.Names()}
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.views))
	for name := range r.views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered view types sorted by name.
func (r *Registry) List() []Capability {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Capability, 0, len(names))
	for _, name := range names {
		if c, ok := r.views[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Viewable returns the view types that can preview res, sorted by name.
func (r *Registry) Viewable(res Resource) []Capability {
	var out []Capability
	for _, c := range r.List() {
		if c.CanView(res) {
			out = append(out, c)
		}
	}
	return out
}

// Install registers the shared assets with p and adds every variant to reg.
// Assets are registered once; a failure aborts the installation.
func Install(reg *Registry, p AssetPipeline) error {
	if err := RegisterAssets(p); err != nil {
		return fmt.Errorf("failed to register assets: %w", err)
	}
	for _, v := range Variants {
		view, err := New(v)
		if err != nil {
			return err
		}
		if err := reg.Register(view); err != nil {
			return err
		}
	}
	return nil
}
