package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/spektr-im/spektr/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// Spektr API. It applies JSON content-type enforcement and request
// logging, and mounts the identity, chat, and settings endpoints
// under /api.
func NewRouter(
	authHandler *AuthHandler,
	chatHandler *ChatHandler,
	settingsHandler *SettingsHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Get("/me", authHandler.Me)
		r.Patch("/me", authHandler.UpdateMe)
		r.Post("/me/password", authHandler.ChangePassword)

		r.Route("/users", func(r chi.Router) {
			r.Get("/search", authHandler.SearchUsers)
			r.Get("/{id}", authHandler.GetUser)
			r.Post("/{id}/block", chatHandler.BlockUser)
			r.Post("/{id}/unblock", chatHandler.UnblockUser)
		})

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", chatHandler.List)
			r.Post("/", chatHandler.CreateOrGet)
			r.Delete("/{id}", chatHandler.Delete)
			r.Post("/{id}/read", chatHandler.MarkRead)
			r.Get("/{id}/messages", chatHandler.GetMessages)
			r.Post("/{id}/messages", chatHandler.SendMessage)
			r.Patch("/{id}/messages/{messageID}", chatHandler.EditMessage)
			r.Delete("/{id}/messages/{messageID}", chatHandler.DeleteMessage)
		})

		r.Post("/messages/{messageID}/forward", chatHandler.ForwardMessage)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/theme", settingsHandler.GetTheme)
			r.Put("/theme", settingsHandler.SetTheme)
		})
	})

	return r
}
