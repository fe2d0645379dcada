package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PackageRoutes returns packages router
func (h *Handler) PackageRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public routes
	r.Get("/", h.ListPackages)
	r.Get("/{id}", h.GetPackage)

	// Admin routes, role checked by the service
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreatePackage)
		r.Put("/{id}", h.UpdatePackage)
		r.Delete("/{id}", h.DeletePackage)
	})

	return r
}

// AddOnRoutes returns add-ons router
func (h *Handler) AddOnRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListAddOns)
	r.Get("/{id}", h.GetAddOn)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreateAddOn)
		r.Put("/{id}", h.UpdateAddOn)
		r.Delete("/{id}", h.DeleteAddOn)
	})

	return r
}
