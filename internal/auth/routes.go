package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers all account routes with the Chi router.
// Public routes: /register, /login
// Protected routes: /profile, /change-password, /verify
func RegisterRoutes(r chi.Router, handler *Handler, authGateway Middleware) {
	r.Route("/auth", func(r chi.Router) {
		// Public routes (no authentication required)
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)

		// Protected routes (authentication required)
		r.Group(func(r chi.Router) {
			r.Use(authGateway)
			r.Get("/profile", handler.GetProfile)
			r.Put("/profile", handler.UpdateProfile)
			r.Put("/change-password", handler.ChangePassword)
			r.Get("/verify", handler.Verify)
		})
	})
}
