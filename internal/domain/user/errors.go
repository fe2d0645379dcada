package user

import "github.com/shotbook/shotbook-api/internal/pkg/apperror"

var (
	ErrUserNotFound       = apperror.NotFound("user not found")
	ErrEmailAlreadyExists = apperror.Conflict("email already exists")
)
