package booking

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/domain/catalog"
	"github.com/shotbook/shotbook-api/internal/pkg/apperror"
	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/events"
	"github.com/shotbook/shotbook-api/internal/pkg/pagination"
)

// CatalogReader resolves packages and add-ons for pricing
type CatalogReader interface {
	LookupPackage(ctx context.Context, id uuid.UUID) (*catalog.Package, error)
	LookupAddOns(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.AddOn, error)
}

// Service handles booking business logic
type Service struct {
	repo      Repository
	activity  ActivityRepository
	catalog   CatalogReader
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates booking service. publisher may be nil.
func NewService(repo Repository, activity ActivityRepository, catalog CatalogReader, publisher events.Publisher) *Service {
	return &Service{
		repo:      repo,
		activity:  activity,
		catalog:   catalog,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create validates and prices a booking request and stores it as pending
func (s *Service) Create(ctx context.Context, caller authz.Caller, req *CreateBookingRequest) (*Booking, error) {
	if err := authz.Require(caller, authz.RoleClient); err != nil {
		return nil, err
	}

	pkg, err := s.catalog.LookupPackage(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, ErrPackageNotFound
	}
	if !pkg.IsActive {
		return nil, ErrPackageInactive
	}

	eventDate, err := s.parseFutureDate(req.EventDate)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.AddOns))
	for _, sel := range req.AddOns {
		ids = append(ids, sel.AddOnID)
	}
	available, err := s.catalog.LookupAddOns(ctx, ids)
	if err != nil {
		return nil, err
	}

	total, items := Quote(pkg, req.AddOns, available)
	if skipped := len(req.AddOns) - len(items); skipped > 0 {
		log.Info().
			Str("package_id", pkg.ID.String()).
			Int("skipped", skipped).
			Msg("unavailable add-ons skipped")
	}

	b := &Booking{
		ID:              uuid.New(),
		UserID:          caller.UserID,
		PackageID:       pkg.ID,
		EventType:       strings.TrimSpace(req.EventType),
		EventDate:       eventDate,
		EventTime:       req.EventTime,
		Location:        strings.TrimSpace(req.Location),
		Notes:           nullString(req.Notes),
		TotalPrice:      total,
		Status:          StatusPending,
		PackageTitle:    pkg.Title,
		PackageCategory: string(pkg.Category),
		AddOns:          items,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("user_id", b.UserID.String()).
		Str("total_price", b.TotalPrice.StringFixed(2)).
		Msg("booking created")

	s.publish(ctx, events.New(events.BookingCreated, b.ID, b.UserID, string(b.Status), map[string]interface{}{
		"package_id":  b.PackageID,
		"total_price": b.TotalPrice,
		"event_date":  b.EventDate.Format(dateLayout),
		"add_ons":     len(b.AddOns),
	}))

	return b, nil
}

// GetByID returns a booking visible to the caller
func (s *Service) GetByID(ctx context.Context, caller authz.Caller, id uuid.UUID) (*Booking, error) {
	if err := authz.Require(caller, authz.RoleClient); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}

	if err := authz.RequireOwnerOrAdmin(caller, b.UserID); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser returns the bookings owned by userID
func (s *Service) ListByUser(ctx context.Context, caller authz.Caller, userID uuid.UUID, page pagination.Pagination) ([]*Booking, int, error) {
	if err := authz.RequireOwnerOrAdmin(caller, userID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByUser(ctx, userID, page)
}

// List returns all bookings, optionally filtered by status (admin only)
func (s *Service) List(ctx context.Context, caller authz.Caller, status *Status, page pagination.Pagination) ([]*Booking, int, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, 0, err
	}
	if status != nil && !status.IsValid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.repo.List(ctx, status, page)
}

// UpdateStatus moves a booking along its lifecycle and/or sets admin notes.
// Omitted fields keep their current value.
func (s *Service) UpdateStatus(ctx context.Context, caller authz.Caller, id uuid.UUID, req *UpdateStatusRequest) (*Booking, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}

	current := b.Status
	next := current
	if req.Status != nil {
		next = Status(*req.Status)
		if !next.IsValid() {
			return nil, ErrInvalidStatus
		}
		if !current.CanTransitionTo(next) {
			return nil, apperror.Wrap(apperror.KindInvalidState,
				fmt.Sprintf("cannot change booking status from %s to %s", current, next),
				ErrInvalidTransition)
		}
	}

	adminNotes := b.AdminNotes
	if req.AdminNotes != nil {
		adminNotes = nullString(*req.AdminNotes)
	}

	if next == current && adminNotes == b.AdminNotes {
		return b, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, current, next, adminNotes); err != nil {
		return nil, err
	}

	b.Status = next
	b.AdminNotes = adminNotes
	b.UpdatedAt = s.now()

	if next != current {
		log.Info().
			Str("booking_id", b.ID.String()).
			Str("from", string(current)).
			Str("to", string(next)).
			Str("admin_id", caller.UserID.String()).
			Msg("booking status changed")

		s.publish(ctx, events.New(events.BookingStatusChanged, b.ID, b.UserID, string(next), map[string]string{
			"from": string(current),
			"to":   string(next),
		}))
	}

	return b, nil
}

// ListActivity returns the recorded event log of a booking (admin only)
func (s *Service) ListActivity(ctx context.Context, caller authz.Caller, id uuid.UUID) ([]*Activity, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}

	return s.activity.ListByBooking(ctx, id)
}

// RecordActivity stores a consumed event in the activity log
func (s *Service) RecordActivity(ctx context.Context, event events.Event) error {
	return s.activity.Record(ctx, event)
}

// parseFutureDate parses a YYYY-MM-DD date that must be strictly after today
func (s *Service) parseFutureDate(value string) (time.Time, error) {
	now := s.now()
	date, err := time.ParseInLocation(dateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidEventDate
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !date.After(today) {
		return time.Time{}, ErrEventDateNotAhead
	}
	return date, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).
			Str("event_type", string(event.Type)).
			Str("booking_id", event.BookingID.String()).
			Msg("event publish failed")
	}
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}
