package errorhandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shotbook/shotbook-api/internal/pkg/apperror"
	"github.com/shotbook/shotbook-api/internal/pkg/logger"
	"github.com/shotbook/shotbook-api/internal/pkg/response"
)

// Write translates a service error into the response envelope.
// Errors without a kind are logged and reported as 500.
func Write(ctx context.Context, w http.ResponseWriter, err error) {
	kind, ok := apperror.KindOf(err)
	if !ok {
		HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
		return
	}

	message := apperror.MessageOf(err)
	switch kind {
	case apperror.KindNotFound:
		response.NotFound(w, message)
	case apperror.KindInvalidInput:
		response.BadRequest(w, message)
	case apperror.KindInvalidState:
		response.InvalidState(w, message)
	case apperror.KindConflict:
		response.Conflict(w, message)
	case apperror.KindForbidden:
		response.Forbidden(w, message)
	case apperror.KindUnauthorized:
		response.Unauthorized(w, message)
	default:
		HandleError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
		return
	}

	logger.FromContext(ctx).Debug().
		Str("error_kind", string(kind)).
		Err(err).
		Msg("Request rejected")
}

// HandleError logs the failure and sends a formatted error response
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event.Err(err)
	}

	event.Msg("Request error")

	response.Error(w, status, code, message)
}

// LogDatabaseError logs database errors with context
func LogDatabaseError(ctx context.Context, operation string, err error) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("operation", operation).
		Err(err).
		Msg("Database error")
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	log.Warn().
		Str("request_id", logger.RequestID(ctx)).
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}
