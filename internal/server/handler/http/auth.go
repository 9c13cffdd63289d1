package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spektr-im/spektr/internal/models"
)

// IdentityService defines the identity store operations required by
// the HTTP handlers.
type IdentityService interface {
	Register(ctx context.Context, username, name, password string) (models.User, error)
	Login(ctx context.Context, username, password string) (models.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	LookupUser(ctx context.Context, userID string) (models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
}

// AuthHandler handles HTTP requests for registration, sessions, and
// profiles.
type AuthHandler struct {
	// Identity performs the underlying identity store operations.
	Identity IdentityService
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the JSON payload for a password
// change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Register handles user registration requests. It expects a JSON body
// with non-empty "username" and "password" fields and responds with
// the created profile.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.Identity.Register(r.Context(), req.Username, req.Name, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login authenticates by username and password and responds with the
// profile of the now-current user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.Identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Logout clears the session pointer.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Identity.Logout(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me responds with the current user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Identity.CurrentUser(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateMe merges the provided profile fields into the current user's
// record.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.Identity.UpdateProfile(r.Context(), upd)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ChangePassword replaces the current user's credential.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.Identity.ChangePassword(r.Context(), req.OldPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchUsers responds with users whose username contains the q query
// parameter.
func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Identity.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetUser resolves a public profile by identifier.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Identity.LookupUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
