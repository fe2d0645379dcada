package booking

import "github.com/shotbook/shotbook-api/internal/pkg/apperror"

var (
	ErrBookingNotFound   = apperror.NotFound("booking not found")
	ErrPackageNotFound   = apperror.NotFound("package not found")
	ErrPackageInactive   = apperror.InvalidState("package is not available for booking")
	ErrEventDateNotAhead = apperror.InvalidInput("event date must be in the future")
	ErrInvalidEventDate  = apperror.InvalidInput("event date must be formatted as YYYY-MM-DD")
	ErrInvalidStatus     = apperror.InvalidInput("unknown booking status")
	ErrInvalidTransition = apperror.InvalidState("invalid status transition")
	ErrStatusChanged     = apperror.InvalidState("booking status was changed by another request")
	ErrUserNotFound      = apperror.NotFound("user not found")
)
