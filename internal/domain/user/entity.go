package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/shotbook/shotbook-api/internal/pkg/authz"
)

// User represents a user account
type User struct {
	ID           uuid.UUID      `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	FullName     string         `db:"full_name"`
	Phone        sql.NullString `db:"phone"`
	Role         authz.Role     `db:"role"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// IsAdmin returns true if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == authz.RoleAdmin
}

// Caller returns the identity used for authorization checks
func (u *User) Caller() authz.Caller {
	return authz.Caller{UserID: u.ID, Email: u.Email, Role: u.Role}
}
