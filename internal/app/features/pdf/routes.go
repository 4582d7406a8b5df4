// internal/app/features/pdf/routes.go
package pdf

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /api/pdf.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/extract-images", h.ExtractImages)
	r.Post("/extract-images-files", h.ExtractImagesFiles)
	r.Get("/images/{extractionID}/{filename}", h.ServeImage)
	return r
}
