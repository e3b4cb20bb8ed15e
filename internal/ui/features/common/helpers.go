// Package common provides shared helpers for UI features.
package common

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie holding flash messages.
const SessionName = "reclinepreview"

// AddFlash stores a one-shot message shown on the next page load.
func AddFlash(store sessions.Store, w http.ResponseWriter, r *http.Request, msg string) error {
	session, err := store.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	session.AddFlash(msg)
	return session.Save(r, w)
}

// TakeFlashes returns and clears the pending flash messages. Failures are
// logged and yield no messages.
func TakeFlashes(store sessions.Store, w http.ResponseWriter, r *http.Request, logger *slog.Logger) []string {
	session, err := store.Get(r, SessionName)
	if session == nil {
		logger.Debug("failed to read session", "error", err)
		return nil
	}
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		logger.Debug("failed to clear flashes", "error", err)
	}

	msgs := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the body of JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONError writes an error as a JSON response.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// ServerError logs err and writes a 500 response.
func ServerError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
