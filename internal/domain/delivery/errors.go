package delivery

import "github.com/shotbook/shotbook-api/internal/pkg/apperror"

var (
	ErrBookingNotFound      = apperror.NotFound("booking not found")
	ErrDeliveryNotFound     = apperror.NotFound("delivery not found")
	ErrBookingNotCompleted  = apperror.InvalidState("booking must be completed before delivery")
	ErrDeliveryExists       = apperror.Conflict("delivery already exists for this booking")
	ErrStorageNotConfigured = apperror.InvalidState("media storage is not configured")
	ErrInvalidMedia         = apperror.InvalidInput("unsupported media file")
	ErrMediaTooLarge        = apperror.InvalidInput("media file is too large")
	ErrEmptyMedia           = apperror.InvalidInput("media file is empty")
)
