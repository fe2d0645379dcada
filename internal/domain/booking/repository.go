package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/pkg/logger"
	"github.com/shotbook/shotbook-api/internal/pkg/pagination"
)

// Repository defines booking data access interface
type Repository interface {
	// Create stores the booking and its line items atomically
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Pagination) ([]*Booking, int, error)
	List(ctx context.Context, status *Status, page pagination.Pagination) ([]*Booking, int, error)
	// UpdateStatus writes status and admin notes only if the booking is still in status from
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, adminNotes sql.NullString) error
}

type repository struct {
	db *sqlx.DB
}

const bookingSelect = `
	SELECT
		b.id, b.user_id, b.package_id, b.event_type, b.event_date, b.event_time,
		b.location, b.notes, b.admin_notes, b.total_price, b.status,
		b.created_at, b.updated_at,
		p.title AS package_title, p.category AS package_category
	FROM bookings b
	JOIN packages p ON p.id = b.package_id
`

// NewRepository creates new booking repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *repository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("booking repository begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bookings (
			id, user_id, package_id, event_type, event_date, event_time,
			location, notes, admin_notes, total_price, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRowxContext(ctx, query,
		b.ID, b.UserID, b.PackageID, b.EventType, b.EventDate, b.EventTime,
		b.Location, b.Notes, b.AdminNotes, b.TotalPrice, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		logWriteError(ctx, "bookings.create", b, err)
		return mapWriteError(err)
	}

	for _, item := range b.AddOns {
		item.BookingID = b.ID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO booking_addons (id, booking_id, addon_id, quantity, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.BookingID, item.AddOnID, item.Quantity, item.UnitPrice, item.Position)
		if err != nil {
			logWriteError(ctx, "booking_addons.create", b, err)
			return mapWriteError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("booking repository commit: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	if err := r.db.GetContext(ctx, &b, bookingSelect+` WHERE b.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("booking repository get: %w", err)
	}

	if err := r.attachLineItems(ctx, []*Booking{&b}); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Pagination) ([]*Booking, int, error) {
	return r.list(ctx, "b.user_id = $1", []interface{}{userID}, page)
}

func (r *repository) List(ctx context.Context, status *Status, page pagination.Pagination) ([]*Booking, int, error) {
	if status != nil {
		return r.list(ctx, "b.status = $1", []interface{}{*status}, page)
	}
	return r.list(ctx, "", nil, page)
}

func (r *repository) list(ctx context.Context, condition string, args []interface{}, page pagination.Pagination) ([]*Booking, int, error) {
	where := ""
	if condition != "" {
		where = " WHERE " + condition
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings b`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("booking repository count: %w", err)
	}

	query := fmt.Sprintf(`%s%s ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d`,
		bookingSelect, where, len(args)+1, len(args)+2)

	bookings := []*Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, append(args, page.Limit, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("booking repository list: %w", err)
	}

	if err := r.attachLineItems(ctx, bookings); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// attachLineItems loads the line items of all given bookings in one query
func (r *repository) attachLineItems(ctx context.Context, bookings []*Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*Booking, len(bookings))
	ids := make([]string, len(bookings))
	for i, b := range bookings {
		b.AddOns = []*LineItem{}
		byID[b.ID] = b
		ids[i] = b.ID.String()
	}

	query := `
		SELECT ba.id, ba.booking_id, ba.addon_id, a.name AS addon_name,
			ba.quantity, ba.unit_price, ba.position
		FROM booking_addons ba
		JOIN addons a ON a.id = ba.addon_id
		WHERE ba.booking_id = ANY($1::uuid[])
		ORDER BY ba.booking_id, ba.position
	`

	var items []*LineItem
	if err := r.db.SelectContext(ctx, &items, query, pq.StringArray(ids)); err != nil {
		return fmt.Errorf("booking repository line items: %w", err)
	}

	for _, item := range items {
		if b, ok := byID[item.BookingID]; ok {
			b.AddOns = append(b.AddOns, item)
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, adminNotes sql.NullString) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bookings SET status = $3, admin_notes = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to, adminNotes)
	if err != nil {
		log.Error().
			Str("request_id", logger.RequestID(ctx)).
			Str("query", "bookings.update_status").
			Str("booking_id", id.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Err(err).
			Msg("booking status update failed")
		return fmt.Errorf("booking repository update status: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStatusChanged
	}
	return nil
}

func logWriteError(ctx context.Context, query string, b *Booking, err error) {
	evt := log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("query", query).
		Str("booking_id", b.ID.String()).
		Str("user_id", b.UserID.String()).
		Str("package_id", b.PackageID.String()).
		Err(err)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		evt = evt.
			Str("pg_code", string(pqErr.Code)).
			Str("pg_constraint", pqErr.Constraint)
	}

	evt.Msg("booking insert failed")
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return fmt.Errorf("booking repository create: %w", err)
	}

	constraint := strings.ToLower(pqErr.Constraint)
	switch pqErr.Code {
	case "23503":
		switch {
		case strings.Contains(constraint, "package"):
			return fmt.Errorf("%w: %w", ErrPackageNotFound, err)
		case strings.Contains(constraint, "user"):
			return fmt.Errorf("%w: %w", ErrUserNotFound, err)
		}
	}
	return fmt.Errorf("booking repository create: %w", err)
}
