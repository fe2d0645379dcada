package booking

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/errorhandler"
	"github.com/shotbook/shotbook-api/internal/pkg/pagination"
	"github.com/shotbook/shotbook-api/internal/pkg/response"
	"github.com/shotbook/shotbook-api/internal/pkg/validator"
)

// Handler handles booking HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates booking handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /bookings
// @Summary Create booking request
// @Description Unavailable add-ons are skipped; the total covers the package and the accepted add-ons
// @Tags Booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "Booking data"
// @Success 201 {object} response.Response{data=BookingResponse}
// @Failure 400,401,404,409,422 {object} response.Response
// @Router /bookings [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		errorhandler.LogValidationError(r.Context(), errors)
		response.ValidationError(w, errors)
		return
	}

	b, err := h.service.Create(r.Context(), authz.CallerFrom(r.Context()), &req)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.Created(w, BookingResponseFromEntity(b))
}

// GetByID handles GET /bookings/{id}
// @Summary Get booking
// @Tags Booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,403,404 {object} response.Response
// @Router /bookings/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	b, err := h.service.GetByID(r.Context(), authz.CallerFrom(r.Context()), id)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.OK(w, BookingResponseFromEntity(b))
}

// ListByUser handles GET /bookings/user/{user_id}
// @Summary List a user's bookings
// @Description Clients may only list their own bookings; admins may list anyone's
// @Tags Booking
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "User ID"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response{data=[]BookingResponse}
// @Failure 400,401,403 {object} response.Response
// @Router /bookings/user/{user_id} [get]
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	page := pagination.FromRequest(r)
	bookings, total, err := h.service.ListByUser(r.Context(), authz.CallerFrom(r.Context()), userID, page)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.WithMeta(w, toResponses(bookings), response.NewMeta(total, page.Page, page.Limit))
}

// List handles GET /bookings
// @Summary List all bookings (admin)
// @Tags Booking
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or completed"
// @Success 200 {object} response.Response{data=[]BookingResponse}
// @Failure 400,403 {object} response.Response
// @Router /bookings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if v := r.URL.Query().Get("status"); v != "" {
		s := Status(v)
		status = &s
	}

	page := pagination.FromRequest(r)
	bookings, total, err := h.service.List(r.Context(), authz.CallerFrom(r.Context()), status, page)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.WithMeta(w, toResponses(bookings), response.NewMeta(total, page.Page, page.Limit))
}

// UpdateStatus handles PUT /bookings/{id}/status
// @Summary Change booking status and/or admin notes (admin)
// @Tags Booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body UpdateStatusRequest true "Fields to change"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,403,404,409,422 {object} response.Response
// @Router /bookings/{id}/status [put]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	b, err := h.service.UpdateStatus(r.Context(), authz.CallerFrom(r.Context()), id, &req)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.OK(w, BookingResponseFromEntity(b))
}

// ListActivity handles GET /bookings/{id}/activity
// @Summary Booking event log (admin)
// @Tags Booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=[]ActivityResponse}
// @Failure 400,403,404 {object} response.Response
// @Router /bookings/{id}/activity [get]
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	activity, err := h.service.ListActivity(r.Context(), authz.CallerFrom(r.Context()), id)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	items := make([]ActivityResponse, len(activity))
	for i, a := range activity {
		items[i] = ActivityResponseFromEntity(a)
	}
	response.OK(w, items)
}

func toResponses(bookings []*Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = BookingResponseFromEntity(b)
	}
	return items
}
