// Package http provides the JSON API handlers through which the
// presentation layer drives the identity, conversation, and settings
// stores.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spektr-im/spektr/internal/service"
)

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps service failures to HTTP statuses. Every error of
// the store taxonomy is recoverable by the caller; anything else is a
// 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateUsername):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNoCurrentUser):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrWrongOldPassword):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrUnknownTheme):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
