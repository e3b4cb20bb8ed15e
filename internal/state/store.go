// Package state persists resources and their views in SQLite.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Resource is a stored data resource.
type Resource struct {
	ID              string
	Name            string
	URL             string
	Format          string
	DatastoreActive bool
	Extras          map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Record returns the resource in the shape view types read. Extras are
// merged first so the stored columns always win.
func (r *Resource) Record() view.Resource {
	rec := make(view.Resource, len(r.Extras)+5)
	for k, v := range r.Extras {
		rec[k] = v
	}
	rec["id"] = r.ID
	rec["name"] = r.Name
	rec["url"] = r.URL
	rec["format"] = r.Format
	rec["datastore_active"] = r.DatastoreActive
	return rec
}

// ResourceView is a stored view configuration.
type ResourceView struct {
	ID          string
	ResourceID  string
	ViewType    string
	Title       string
	Description string
	Config      map[string]any
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Descriptor returns the view as a view.Descriptor.
func (v *ResourceView) Descriptor() view.Descriptor {
	return view.Descriptor{
		ID:          v.ID,
		ResourceID:  v.ResourceID,
		ViewType:    v.ViewType,
		Title:       v.Title,
		Description: v.Description,
		Config:      v.Config,
	}
}

// Store is the persistence interface used by the UI and CLI.
type Store interface {
	CreateResource(ctx context.Context, r *Resource) error
	GetResource(ctx context.Context, id string) (*Resource, error)
	ListResources(ctx context.Context) ([]*Resource, error)
	SetDatastoreActive(ctx context.Context, id string, active bool) error
	// DeleteResource removes a resource and its views.
	DeleteResource(ctx context.Context, id string) error

	CreateView(ctx context.Context, v *ResourceView) error
	GetView(ctx context.Context, id string) (*ResourceView, error)
	ListViews(ctx context.Context, resourceID string) ([]*ResourceView, error)
	UpdateView(ctx context.Context, v *ResourceView) error
	DeleteView(ctx context.Context, id string) error

	Close() error
}
