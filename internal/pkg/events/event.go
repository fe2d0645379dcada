// Package events carries booking lifecycle events to the message broker and
// to in-process subscribers.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names an event
type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingStatusChanged Type = "booking.status_changed"
	DeliveryCreated      Type = "delivery.created"
	DeliveryUpdated      Type = "delivery.updated"
)

// Event is the payload published for every booking lifecycle change.
// It is self-contained so consumers never need to query the database.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	BookingID  uuid.UUID       `json:"booking_id"`
	UserID     uuid.UUID       `json:"user_id"`
	Status     string          `json:"status,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// New builds an event and marshals data into it
func New(eventType Type, bookingID, userID uuid.UUID, status string, data interface{}) Event {
	ev := Event{
		ID:         uuid.New(),
		Type:       eventType,
		BookingID:  bookingID,
		UserID:     userID,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			ev.Data = raw
		}
	}
	return ev
}
