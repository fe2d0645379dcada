package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/pkg/events"
)

// ActivityRepository stores the booking event log
type ActivityRepository interface {
	// Record stores an event once; replays of the same event id are ignored
	Record(ctx context.Context, event events.Event) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Activity, error)
}

type activityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates booking activity repository
func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Record(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("activity payload: %w", err)
	}

	var status interface{}
	if event.Status != "" {
		status = event.Status
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO booking_activity (event_id, booking_id, event_type, status, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`, event.ID, event.BookingID, string(event.Type), status, types.JSONText(payload), event.OccurredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			// the booking was deleted before the event was consumed
			log.Warn().
				Str("event_id", event.ID.String()).
				Str("booking_id", event.BookingID.String()).
				Msg("dropping activity for missing booking")
			return nil
		}
		return fmt.Errorf("activity repository record: %w", err)
	}
	return nil
}

func (r *activityRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Activity, error) {
	activity := []*Activity{}
	err := r.db.SelectContext(ctx, &activity, `
		SELECT event_id, booking_id, event_type, status, payload, occurred_at, recorded_at
		FROM booking_activity
		WHERE booking_id = $1
		ORDER BY occurred_at ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("activity repository list: %w", err)
	}
	return activity, nil
}
