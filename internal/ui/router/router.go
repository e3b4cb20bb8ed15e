// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/state"
	datastoreFeature "github.com/leapstack-labs/reclinepreview/internal/ui/features/datastore"
	resourcesFeature "github.com/leapstack-labs/reclinepreview/internal/ui/features/resources"
	viewsFeature "github.com/leapstack-labs/reclinepreview/internal/ui/features/views"
	"github.com/leapstack-labs/reclinepreview/internal/ui/notifier"
	"github.com/leapstack-labs/reclinepreview/internal/ui/render"
	"github.com/leapstack-labs/reclinepreview/internal/ui/resources"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// Deps are the services the routes are served from.
type Deps struct {
	Store        state.Store
	Datastore    datastore.Datastore
	Registry     *view.Registry
	Pipeline     *resources.Pipeline
	Renderer     *render.Renderer
	SessionStore sessions.Store
	Notifier     *notifier.Notifier
	Logger       *slog.Logger
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, d Deps) error {
	// Static assets and bundles
	router.Handle(resources.StaticPrefix+"*", d.Pipeline.Handler())
	router.Handle(resources.BundlePrefix+"*", d.Pipeline.BundleHandler())

	// Feature routes
	if err := resourcesFeature.SetupRoutes(router, d.Store, d.Registry, d.SessionStore, d.Logger); err != nil {
		return err
	}

	if err := viewsFeature.SetupRoutes(router, d.Store, d.Registry, d.Renderer, d.SessionStore, d.Notifier, d.Logger); err != nil {
		return err
	}

	if err := datastoreFeature.SetupRoutes(router, d.Datastore, d.Logger); err != nil {
		return err
	}

	return nil
}
