package datastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/ui/features/common"
)

const searchTimeout = 30 * time.Second

// Handlers provides HTTP handlers for the datastore API.
type Handlers struct {
	ds     datastore.Datastore
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance. ds may be nil when no
// datastore is configured.
func NewHandlers(ds datastore.Datastore, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{ds: ds, logger: logger}
}

// Search returns a page of a resource's rows.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	if h.ds == nil {
		common.WriteJSONError(w, http.StatusServiceUnavailable, "no datastore configured")
		return
	}

	params := datastore.SearchParams{ResourceID: chi.URLParam(r, "resourceID")}
	offset, err := intParam(r, "offset")
	if err != nil {
		common.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if offset != nil {
		params.Offset = *offset
	}
	if params.Limit, err = intParam(r, "limit"); err != nil {
		common.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()

	result, err := h.ds.Search(ctx, params)
	if errors.Is(err, datastore.ErrNotFound) {
		common.WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("datastore search failed", "resource", params.ResourceID, "error", err)
		common.WriteJSONError(w, http.StatusInternalServerError, "datastore search failed")
		return
	}
	common.WriteJSON(w, http.StatusOK, result)
}

// intParam parses an optional non-negative integer query parameter. It
// returns nil when the parameter is absent.
func intParam(r *http.Request, name string) (*int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%s must be a natural number", name)
	}
	return &n, nil
}
