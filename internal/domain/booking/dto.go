package booking

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// CreateBookingRequest for POST /bookings
type CreateBookingRequest struct {
	PackageID uuid.UUID        `json:"package_id" validate:"required"`
	EventType string           `json:"event_type" validate:"required,min=2,max=100"`
	EventDate string           `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventTime string           `json:"event_time" validate:"required,datetime=15:04"`
	Location  string           `json:"location" validate:"required,min=2,max=500"`
	Notes     string           `json:"notes" validate:"max=2000"`
	AddOns    []AddOnSelection `json:"add_ons" validate:"omitempty,max=50,dive"`
}

// UpdateStatusRequest for PUT /bookings/{id}/status; omitted fields stay unchanged
type UpdateStatusRequest struct {
	Status     *string `json:"status" validate:"omitempty,booking_status"`
	AdminNotes *string `json:"admin_notes" validate:"omitempty,max=2000"`
}

// PackageSummary is the package embedded in a booking response
type PackageSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
}

// LineItemResponse represents a booked add-on
type LineItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	AddOnID   uuid.UUID       `json:"addon_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// BookingResponse represents booking in API response
type BookingResponse struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	Package    PackageSummary     `json:"package"`
	EventType  string             `json:"event_type"`
	EventDate  string             `json:"event_date"`
	EventTime  string             `json:"event_time"`
	Location   string             `json:"location"`
	Notes      *string            `json:"notes,omitempty"`
	AdminNotes *string            `json:"admin_notes,omitempty"`
	Status     string             `json:"status"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	AddOns     []LineItemResponse `json:"add_ons"`
	CreatedAt  string             `json:"created_at"`
	UpdatedAt  string             `json:"updated_at"`
}

// ActivityResponse is one entry of a booking's event log
type ActivityResponse struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	Status     string          `json:"status,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurred_at"`
	RecordedAt string          `json:"recorded_at"`
}

func BookingResponseFromEntity(b *Booking) BookingResponse {
	resp := BookingResponse{
		ID:     b.ID,
		UserID: b.UserID,
		Package: PackageSummary{
			ID:       b.PackageID,
			Title:    b.PackageTitle,
			Category: b.PackageCategory,
		},
		EventType:  b.EventType,
		EventDate:  b.EventDate.Format(dateLayout),
		EventTime:  b.EventTime,
		Location:   b.Location,
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice,
		AddOns:     make([]LineItemResponse, 0, len(b.AddOns)),
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  b.UpdatedAt.Format(time.RFC3339),
	}
	if b.Notes.Valid {
		resp.Notes = &b.Notes.String
	}
	if b.AdminNotes.Valid {
		resp.AdminNotes = &b.AdminNotes.String
	}

	for _, item := range b.AddOns {
		resp.AddOns = append(resp.AddOns, LineItemResponse{
			ID:        item.ID,
			AddOnID:   item.AddOnID,
			Name:      item.AddOnName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
		})
	}
	return resp
}

func ActivityResponseFromEntity(a *Activity) ActivityResponse {
	payload := json.RawMessage(a.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return ActivityResponse{
		EventID:    a.EventID,
		EventType:  a.EventType,
		Status:     a.Status.String,
		Payload:    payload,
		OccurredAt: a.OccurredAt.Format(time.RFC3339),
		RecordedAt: a.RecordedAt.Format(time.RFC3339),
	}
}
