// Package views provides the view preview, configuration and live update
// feature for the UI.
package views

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/ui/notifier"
	"github.com/leapstack-labs/reclinepreview/internal/ui/render"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// SetupRoutes registers view routes on the router.
func SetupRoutes(
	router chi.Router,
	store state.Store,
	registry *view.Registry,
	renderer *render.Renderer,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(store, registry, renderer, sessionStore, notify, logger)

	// Page routes (full page render)
	router.Get("/views/{id}", handlers.ViewPage)
	router.Get("/views/{id}/edit", handlers.EditForm)
	router.Post("/views/{id}/edit", handlers.EditSubmit)
	router.Post("/views/{id}/delete", handlers.DeleteView)

	// SSE routes (long-lived streams)
	router.Get("/views/{id}/updates", handlers.ViewUpdates)

	return nil
}
