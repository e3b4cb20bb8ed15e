// Package resources provides the resource listing and view creation
// feature for the UI.
package resources

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// SetupRoutes registers resource routes on the router.
func SetupRoutes(
	router chi.Router,
	store state.Store,
	registry *view.Registry,
	sessionStore sessions.Store,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(store, registry, sessionStore, logger)

	router.Get("/", handlers.HomePage)
	router.Get("/resources/{id}", handlers.ResourcePage)
	router.Post("/resources/{id}/views", handlers.CreateView)

	return nil
}
