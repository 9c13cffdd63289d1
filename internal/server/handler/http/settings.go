package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/spektr-im/spektr/internal/models"
)

// SettingsService defines the settings store operations required by
// the HTTP handlers.
type SettingsService interface {
	Theme(ctx context.Context) (models.Theme, error)
	SetTheme(ctx context.Context, theme models.Theme) error
}

// SettingsHandler handles HTTP requests for UI preferences.
type SettingsHandler struct {
	// Settings performs the underlying settings store operations.
	Settings SettingsService
}

// GetTheme responds with the persisted theme.
func (h *SettingsHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.Settings.Theme(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]models.Theme{"theme": theme})
}

// SetTheme persists the selected theme.
func (h *SettingsHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme models.Theme `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Theme == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Settings.SetTheme(r.Context(), req.Theme); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
