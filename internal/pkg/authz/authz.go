// Package authz holds the caller identity and the role capability check
// that every admin-gated operation goes through.
package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/shotbook/shotbook-api/internal/pkg/apperror"
)

// Role is a user role
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// roleLevel orders roles; a caller holds every role at or below its level.
var roleLevel = map[Role]int{
	RoleClient: 10,
	RoleAdmin:  100,
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	_, ok := roleLevel[r]
	return ok
}

// Caller is the authenticated identity behind a request
type Caller struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// IsAuthenticated reports whether the caller carries a user id
func (c Caller) IsAuthenticated() bool {
	return c.UserID != uuid.Nil
}

// Has reports whether the caller holds the required role
func (c Caller) Has(required Role) bool {
	have, ok := roleLevel[c.Role]
	if !ok || !c.IsAuthenticated() {
		return false
	}
	return have >= roleLevel[required]
}

var (
	ErrNotAuthenticated = apperror.Unauthorized("authentication required")
	ErrAdminRequired    = apperror.Forbidden("admin role required")
	ErrRoleRequired     = apperror.Forbidden("insufficient permissions")
	ErrNotOwner         = apperror.Forbidden("you can only access your own bookings")
)

// Require fails unless the caller holds the required role
func Require(caller Caller, required Role) error {
	if !caller.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if caller.Has(required) {
		return nil
	}
	if required == RoleAdmin {
		return ErrAdminRequired
	}
	return ErrRoleRequired
}

// RequireOwnerOrAdmin passes for the owner of a resource and for admins
func RequireOwnerOrAdmin(caller Caller, ownerID uuid.UUID) error {
	if !caller.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if caller.UserID == ownerID {
		return nil
	}
	if Require(caller, RoleAdmin) == nil {
		return nil
	}
	return ErrNotOwner
}

type contextKey struct{}

// WithCaller stores the caller in ctx
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, caller)
}

// CallerFrom returns the caller stored in ctx, or the zero Caller
func CallerFrom(ctx context.Context) Caller {
	caller, _ := ctx.Value(contextKey{}).(Caller)
	return caller
}
