package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Status represents booking status
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// transitions lists the statuses reachable from each status.
// Rejected and completed are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Keeping the current status is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Booking is a client's reservation request for a package
type Booking struct {
	ID         uuid.UUID       `db:"id"`
	UserID     uuid.UUID       `db:"user_id"`
	PackageID  uuid.UUID       `db:"package_id"`
	EventType  string          `db:"event_type"`
	EventDate  time.Time       `db:"event_date"`
	EventTime  string          `db:"event_time"`
	Location   string          `db:"location"`
	Notes      sql.NullString  `db:"notes"`
	AdminNotes sql.NullString  `db:"admin_notes"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Status     Status          `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`

	// Joined from packages
	PackageTitle    string `db:"package_title"`
	PackageCategory string `db:"package_category"`

	AddOns []*LineItem `db:"-"`
}

// LineItem attaches one add-on to a booking. UnitPrice is the add-on price
// captured when the booking was created.
type LineItem struct {
	ID        uuid.UUID       `db:"id"`
	BookingID uuid.UUID       `db:"booking_id"`
	AddOnID   uuid.UUID       `db:"addon_id"`
	AddOnName string          `db:"addon_name"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Position  int             `db:"position"`
}

// Subtotal is unit price times quantity
func (l *LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Activity is one recorded lifecycle event of a booking
type Activity struct {
	EventID    uuid.UUID      `db:"event_id"`
	BookingID  uuid.UUID      `db:"booking_id"`
	EventType  string         `db:"event_type"`
	Status     sql.NullString `db:"status"`
	Payload    types.JSONText `db:"payload"`
	OccurredAt time.Time      `db:"occurred_at"`
	RecordedAt time.Time      `db:"recorded_at"`
}
