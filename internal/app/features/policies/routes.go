// internal/app/features/policies/routes.go
package policies

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /api/policies. The whole tree
// requires authentication. Fixed segments (search, stats, user) are routed
// before the {id} wildcard.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/stats", h.Stats)
	r.Get("/user", h.ByUser)
	r.Get("/master-policy/{masterPolicyNumber}", h.GetByMasterPolicyNumber)
	r.Get("/certificate/{certificateNumber}", h.GetByCertificateNumber)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}
