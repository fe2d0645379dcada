package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/errorhandler"
	"github.com/shotbook/shotbook-api/internal/pkg/response"
	"github.com/shotbook/shotbook-api/internal/pkg/validator"
)

// multipart overhead accepted on top of the file itself
const formOverhead = 1 << 20

// Handler handles delivery HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates delivery handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /delivery
// @Summary Attach deliverables to a completed booking (admin)
// @Tags Delivery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateDeliveryRequest true "Delivery data"
// @Success 201 {object} response.Response{data=DeliveryResponse}
// @Failure 400,403,404,409,422 {object} response.Response
// @Router /delivery [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	d, err := h.service.Create(r.Context(), authz.CallerFrom(r.Context()), &req)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.Created(w, DeliveryResponseFromEntity(d))
}

// Get handles GET /delivery/{booking_id}
// @Summary Get delivery of a booking
// @Tags Delivery
// @Produce json
// @Security BearerAuth
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} response.Response{data=DeliveryResponse}
// @Failure 400,403,404 {object} response.Response
// @Router /delivery/{booking_id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "booking_id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	d, err := h.service.Get(r.Context(), authz.CallerFrom(r.Context()), bookingID)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.OK(w, DeliveryResponseFromEntity(d))
}

// Update handles PUT /delivery/{booking_id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "booking_id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req UpdateDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	d, err := h.service.Update(r.Context(), authz.CallerFrom(r.Context()), bookingID, &req)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.OK(w, DeliveryResponseFromEntity(d))
}

// UploadMedia handles POST /delivery/{booking_id}/media
// @Summary Upload a photo or video to a delivery (admin)
// @Tags Delivery
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param booking_id path string true "Booking ID"
// @Param file formData file true "Photo or video"
// @Success 201 {object} response.Response{data=MediaResponse}
// @Failure 400,403,404,409 {object} response.Response
// @Router /delivery/{booking_id}/media [post]
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "booking_id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	if !h.service.MediaEnabled() {
		errorhandler.Write(r.Context(), w, ErrStorageNotConfigured)
		return
	}

	limit := h.service.MaxUploadBytes() + formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	result, err := h.service.UploadMedia(r.Context(), authz.CallerFrom(r.Context()), bookingID, file)
	if err != nil {
		errorhandler.Write(r.Context(), w, err)
		return
	}

	response.Created(w, result)
}
