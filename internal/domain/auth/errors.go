package auth

import "github.com/shotbook/shotbook-api/internal/pkg/apperror"

var (
	ErrInvalidCredentials  = apperror.Unauthorized("invalid email or password")
	ErrInvalidRefreshToken = apperror.Unauthorized("invalid or expired refresh token")
	ErrUserNotFound        = apperror.NotFound("user not found")
)
