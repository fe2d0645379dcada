package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/pkg/logger"
	"github.com/shotbook/shotbook-api/internal/pkg/storage"
)

// Repository defines delivery data access interface
type Repository interface {
	Create(ctx context.Context, d *Delivery) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*Delivery, error)
	Update(ctx context.Context, d *Delivery) error
	// AppendMedia adds one URL to the photo or video list and returns the updated row
	AppendMedia(ctx context.Context, bookingID uuid.UUID, kind storage.MediaKind, url string) (*Delivery, error)
}

type repository struct {
	db *sqlx.DB
}

const deliverySelectColumns = `id, booking_id, photo_urls, video_urls, download_links, notes, delivered_at, created_at, updated_at`

// NewRepository creates new delivery repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *Delivery) error {
	query := `
		INSERT INTO deliveries (id, booking_id, photo_urls, video_urls, download_links, notes, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		d.ID, d.BookingID, d.PhotoURLs, d.VideoURLs, d.DownloadLinks, d.Notes, d.DeliveredAt,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		evt := log.Error().
			Str("request_id", logger.RequestID(ctx)).
			Str("query", "deliveries.create").
			Str("booking_id", d.BookingID.String()).
			Err(err)

		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			evt = evt.
				Str("pg_code", string(pqErr.Code)).
				Str("pg_constraint", pqErr.Constraint)
			evt.Msg("delivery insert failed")

			switch pqErr.Code {
			case "23505":
				return fmt.Errorf("%w: %w", ErrDeliveryExists, err)
			case "23503":
				return fmt.Errorf("%w: %w", ErrBookingNotFound, err)
			}
			return fmt.Errorf("delivery repository create: %w", err)
		}

		evt.Msg("delivery insert failed")
		return fmt.Errorf("delivery repository create: %w", err)
	}
	return nil
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*Delivery, error) {
	var d Delivery
	err := r.db.GetContext(ctx, &d, `SELECT `+deliverySelectColumns+` FROM deliveries WHERE booking_id = $1`, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("delivery repository get: %w", err)
	}
	return &d, nil
}

func (r *repository) Update(ctx context.Context, d *Delivery) error {
	query := `
		UPDATE deliveries SET
			photo_urls = $2, video_urls = $3, download_links = $4, notes = $5,
			updated_at = NOW()
		WHERE booking_id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		d.BookingID, d.PhotoURLs, d.VideoURLs, d.DownloadLinks, d.Notes,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDeliveryNotFound
		}
		return fmt.Errorf("delivery repository update: %w", err)
	}
	return nil
}

func (r *repository) AppendMedia(ctx context.Context, bookingID uuid.UUID, kind storage.MediaKind, url string) (*Delivery, error) {
	column := "photo_urls"
	if kind == storage.MediaVideo {
		column = "video_urls"
	}

	query := fmt.Sprintf(`
		UPDATE deliveries SET %[1]s = array_append(COALESCE(%[1]s, '{}'), $2), updated_at = NOW()
		WHERE booking_id = $1
		RETURNING %[2]s
	`, column, deliverySelectColumns)

	var d Delivery
	if err := r.db.GetContext(ctx, &d, query, bookingID, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("delivery repository append media: %w", err)
	}
	return &d, nil
}
