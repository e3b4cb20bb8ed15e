// Package datastore provides the JSON search API the preview widgets query.
package datastore

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"
)

// SetupRoutes registers the datastore API on the router.
func SetupRoutes(router chi.Router, ds datastore.Datastore, logger *slog.Logger) error {
	handlers := NewHandlers(ds, logger)

	router.Get("/api/datastore/{resourceID}", handlers.Search)

	return nil
}
