// internal/app/features/authapi/routes.go
package authapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/auth. Register and login
// are public; profile sits behind the auth middleware.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/profile", h.Profile)
	})
	return r
}
