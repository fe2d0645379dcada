package delivery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns delivery router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/{booking_id}", h.Get)
	r.Put("/{booking_id}", h.Update)
	r.Post("/{booking_id}/media", h.UploadMedia)

	return r
}
