package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shotbook/shotbook-api/internal/pkg/authz"
	"github.com/shotbook/shotbook-api/internal/pkg/jwt"
	"github.com/shotbook/shotbook-api/internal/pkg/response"
)

// Auth returns middleware that validates the access token and stores the caller
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				response.Unauthorized(w, "Missing or malformed authorization header")
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := authz.WithCaller(r.Context(), CallerFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// CallerFromClaims converts token claims into a caller
func CallerFromClaims(claims *jwt.Claims) authz.Caller {
	return authz.Caller{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   authz.Role(claims.Role),
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	return authz.CallerFrom(ctx).UserID
}

// GetRole extracts role from context
func GetRole(ctx context.Context) authz.Role {
	return authz.CallerFrom(ctx).Role
}
