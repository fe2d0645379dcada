package delivery

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/domain/booking"
	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/events"
	"github.com/shotbook/shotbook-api/internal/pkg/imaging"
	"github.com/shotbook/shotbook-api/internal/pkg/storage"
)

// BookingLookup loads the parent booking of a delivery
type BookingLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

// ImageProcessor produces the web rendition and thumbnail of a photo
type ImageProcessor interface {
	Process(data []byte) (*imaging.ProcessedImage, error)
}

// Service handles delivery business logic
type Service struct {
	repo           Repository
	bookings       BookingLookup
	publisher      events.Publisher
	storage        storage.Storage
	images         ImageProcessor
	maxUploadBytes int64
	now            func() time.Time
}

// NewService creates delivery service. publisher may be nil.
func NewService(repo Repository, bookings BookingLookup, publisher events.Publisher) *Service {
	return &Service{
		repo:      repo,
		bookings:  bookings,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithMedia enables media uploads into store
func (s *Service) WithMedia(store storage.Storage, images ImageProcessor, maxUploadBytes int64) *Service {
	s.storage = store
	s.images = images
	s.maxUploadBytes = maxUploadBytes
	return s
}

// MediaEnabled reports whether uploads are configured
func (s *Service) MediaEnabled() bool {
	return s.storage != nil
}

// MaxUploadBytes is the accepted media size
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Create attaches deliverables to a completed booking (admin only)
func (s *Service) Create(ctx context.Context, caller authz.Caller, req *CreateDeliveryRequest) (*Delivery, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrBookingNotCompleted
	}

	existing, err := s.repo.GetByBookingID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDeliveryExists
	}

	d := &Delivery{
		ID:            uuid.New(),
		BookingID:     b.ID,
		PhotoURLs:     pq.StringArray(nonNil(req.PhotoURLs)),
		VideoURLs:     pq.StringArray(nonNil(req.VideoURLs)),
		DownloadLinks: toLinks(req.DownloadLinks),
		Notes:         nullString(req.Notes),
		DeliveredAt:   s.now().UTC(),
	}
	if req.DeliveredAt != nil {
		d.DeliveredAt = req.DeliveredAt.UTC()
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	log.Info().
		Str("delivery_id", d.ID.String()).
		Str("booking_id", b.ID.String()).
		Str("admin_id", caller.UserID.String()).
		Msg("delivery created")

	s.publish(ctx, events.DeliveryCreated, b, d)
	return d, nil
}

// Get returns the delivery of a booking to its owner or an admin
func (s *Service) Get(ctx context.Context, caller authz.Caller, bookingID uuid.UUID) (*Delivery, error) {
	if err := authz.Require(caller, authz.RoleClient); err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if err := authz.RequireOwnerOrAdmin(caller, b.UserID); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDeliveryNotFound
	}
	return d, nil
}

// Update overwrites only the supplied fields (admin only)
func (s *Service) Update(ctx context.Context, caller authz.Caller, bookingID uuid.UUID, req *UpdateDeliveryRequest) (*Delivery, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}

	b, d, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if req.PhotoURLs != nil {
		d.PhotoURLs = pq.StringArray(req.PhotoURLs)
	}
	if req.VideoURLs != nil {
		d.VideoURLs = pq.StringArray(req.VideoURLs)
	}
	if req.DownloadLinks != nil {
		d.DownloadLinks = toLinks(req.DownloadLinks)
	}
	if req.Notes != nil {
		d.Notes = nullString(*req.Notes)
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.publish(ctx, events.DeliveryUpdated, b, d)
	return d, nil
}

// UploadMedia stores a photo or video for an existing delivery and appends
// its URL. Photos are stored as a web rendition plus a thumbnail.
func (s *Service) UploadMedia(ctx context.Context, caller authz.Caller, bookingID uuid.UUID, file io.Reader) (*MediaResponse, error) {
	if err := authz.Require(caller, authz.RoleAdmin); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	b, _, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	media, err := storage.ValidateMedia(file, s.maxUploadBytes)
	if err != nil {
		return nil, mapMediaError(err)
	}

	prefix := fmt.Sprintf("deliveries/%s/", bookingID)
	name := uuid.New().String()
	result := &MediaResponse{Kind: string(media.Kind), ContentType: media.MimeType, Size: len(media.Data)}

	switch media.Kind {
	case storage.MediaPhoto:
		img, err := s.images.Process(media.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMedia, err)
		}

		webKey := prefix + "photos/" + name + img.Ext
		thumbKey := prefix + "thumbs/" + name + img.Ext
		if err := s.storage.Put(ctx, webKey, bytes.NewReader(img.Web), img.ContentType); err != nil {
			return nil, fmt.Errorf("store photo: %w", err)
		}
		if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(img.Thumbnail), img.ContentType); err != nil {
			return nil, fmt.Errorf("store thumbnail: %w", err)
		}

		result.URL = s.storage.GetURL(webKey)
		result.ThumbnailURL = s.storage.GetURL(thumbKey)
		result.ContentType = img.ContentType
		result.Size = len(img.Web)
		result.Width = img.Width
		result.Height = img.Height

	case storage.MediaVideo:
		key := prefix + "videos/" + name + media.Ext
		if err := s.storage.Put(ctx, key, bytes.NewReader(media.Data), media.MimeType); err != nil {
			return nil, fmt.Errorf("store video: %w", err)
		}
		result.URL = s.storage.GetURL(key)
	}

	d, err := s.repo.AppendMedia(ctx, bookingID, media.Kind, result.URL)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", bookingID.String()).
		Str("kind", result.Kind).
		Int("size", result.Size).
		Msg("delivery media uploaded")

	s.publish(ctx, events.DeliveryUpdated, b, d)
	result.Delivery = DeliveryResponseFromEntity(d)
	return result, nil
}

func (s *Service) load(ctx context.Context, bookingID uuid.UUID) (*booking.Booking, *Delivery, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, ErrBookingNotFound
	}

	d, err := s.repo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, ErrDeliveryNotFound
	}
	return b, d, nil
}

func (s *Service) publish(ctx context.Context, eventType events.Type, b *booking.Booking, d *Delivery) {
	if s.publisher == nil {
		return
	}

	event := events.New(eventType, b.ID, b.UserID, string(b.Status), map[string]int{
		"photos":         len(d.PhotoURLs),
		"videos":         len(d.VideoURLs),
		"download_links": len(d.DownloadLinks),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).
			Str("event_type", string(eventType)).
			Str("booking_id", b.ID.String()).
			Msg("event publish failed")
	}
}

func mapMediaError(err error) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return ErrMediaTooLarge
	case errors.Is(err, storage.ErrEmptyFile):
		return ErrEmptyMedia
	case errors.Is(err, storage.ErrInvalidMimeType):
		return fmt.Errorf("%w: %w", ErrInvalidMedia, err)
	default:
		return err
	}
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}
