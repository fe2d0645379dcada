package catalog

import "github.com/shotbook/shotbook-api/internal/pkg/apperror"

var (
	ErrPackageNotFound = apperror.NotFound("package not found")
	ErrAddOnNotFound   = apperror.NotFound("add-on not found")
	ErrPackageInUse    = apperror.Conflict("package is referenced by bookings; deactivate it instead")
	ErrAddOnInUse      = apperror.Conflict("add-on is referenced by bookings; deactivate it instead")
	ErrInvalidCategory = apperror.InvalidInput("invalid category")
	ErrConstraint      = apperror.InvalidInput("catalog entry violates a constraint")
)
