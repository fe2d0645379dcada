package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns booking router; every route requires authentication
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/user/{user_id}", h.ListByUser)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Get("/{id}/activity", h.ListActivity)

	return r
}
