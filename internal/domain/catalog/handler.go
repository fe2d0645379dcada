package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/errorhandler"
	"github.com/shotbook/shotbook-api/internal/pkg/pagination"
	"github.com/shotbook/shotbook-api/internal/pkg/response"
	"github.com/shotbook/shotbook-api/internal/pkg/validator"
)

// Handler handles catalog HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates catalog handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListPackages handles GET /packages
// @Summary List service packages
// @Tags Catalog
// @Produce json
// @Param category query string false "photography, videography, combo or editing"
// @Param active_only query bool false "Only active packages (default true)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response{data=[]PackageResponse}
// @Router /packages [get]
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r, "package_category")
	if !ok {
		return
	}
	page := pagination.FromRequest(r)

	result, err := h.service.ListPackages(r.Context(), filter, page)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	items := make([]PackageResponse, len(result.Items))
	for i, p := range result.Items {
		items[i] = PackageResponseFromEntity(p)
	}

	response.WithMeta(w, items, response.NewMeta(result.Total, page.Page, page.Limit))
}

// GetPackage handles GET /packages/{id}
// @Summary Get package by ID
// @Tags Catalog
// @Produce json
// @Param id path string true "Package ID"
// @Success 200 {object} response.Response{data=PackageResponse}
// @Failure 400,404 {object} response.Response
// @Router /packages/{id} [get]
func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid package ID")
		return
	}

	p, err := h.service.GetPackage(r.Context(), id)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.OK(w, PackageResponseFromEntity(p))
}

// CreatePackage handles POST /packages
// @Summary Create package
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePackageRequest true "Package data"
// @Success 201 {object} response.Response{data=PackageResponse}
// @Failure 400,403,422 {object} response.Response
// @Router /packages [post]
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req CreatePackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	p, err := h.service.CreatePackage(r.Context(), authz.CallerFrom(r.Context()), &req)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.Created(w, PackageResponseFromEntity(p))
}

// UpdatePackage handles PUT /packages/{id}
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid package ID")
		return
	}

	var req UpdatePackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	p, err := h.service.UpdatePackage(r.Context(), authz.CallerFrom(r.Context()), id, &req)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.OK(w, PackageResponseFromEntity(p))
}

// DeletePackage handles DELETE /packages/{id}
// @Summary Delete package
// @Description Fails with 409 while bookings reference the package
// @Tags Catalog
// @Security BearerAuth
// @Param id path string true "Package ID"
// @Success 204
// @Failure 403,404,409 {object} response.Response
// @Router /packages/{id} [delete]
func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid package ID")
		return
	}

	if err := h.service.DeletePackage(r.Context(), authz.CallerFrom(r.Context()), id); err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.NoContent(w)
}

// ListAddOns handles GET /addons
func (h *Handler) ListAddOns(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r, "addon_category")
	if !ok {
		return
	}
	page := pagination.FromRequest(r)

	result, err := h.service.ListAddOns(r.Context(), filter, page)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	items := make([]AddOnResponse, len(result.Items))
	for i, a := range result.Items {
		items[i] = AddOnResponseFromEntity(a)
	}

	response.WithMeta(w, items, response.NewMeta(result.Total, page.Page, page.Limit))
}

// GetAddOn handles GET /addons/{id}
func (h *Handler) GetAddOn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid add-on ID")
		return
	}

	a, err := h.service.GetAddOn(r.Context(), id)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.OK(w, AddOnResponseFromEntity(a))
}

// CreateAddOn handles POST /addons
func (h *Handler) CreateAddOn(w http.ResponseWriter, r *http.Request) {
	var req CreateAddOnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	a, err := h.service.CreateAddOn(r.Context(), authz.CallerFrom(r.Context()), &req)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.Created(w, AddOnResponseFromEntity(a))
}

// UpdateAddOn handles PUT /addons/{id}
func (h *Handler) UpdateAddOn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid add-on ID")
		return
	}

	var req UpdateAddOnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	a, err := h.service.UpdateAddOn(r.Context(), authz.CallerFrom(r.Context()), id, &req)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.OK(w, AddOnResponseFromEntity(a))
}

// DeleteAddOn handles DELETE /addons/{id}
func (h *Handler) DeleteAddOn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid add-on ID")
		return
	}

	if err := h.service.DeleteAddOn(r.Context(), authz.CallerFrom(r.Context()), id); err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.NoContent(w)
}

// parseFilter reads ?category and ?active_only (default true)
func parseFilter(w http.ResponseWriter, r *http.Request, categoryTag string) (Filter, bool) {
	query := r.URL.Query()
	filter := Filter{ActiveOnly: true}

	if c := query.Get("category"); c != "" {
		if err := validator.ValidateVar(c, categoryTag); err != nil {
			response.BadRequest(w, "Invalid category")
			return filter, false
		}
		filter.Category = c
	}
	if a := query.Get("active_only"); a != "" {
		v, err := strconv.ParseBool(a)
		if err != nil {
			response.BadRequest(w, "Invalid active_only value")
			return filter, false
		}
		filter.ActiveOnly = v
	}

	return filter, true
}
