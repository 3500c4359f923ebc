package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleStandard  UserRole = "standard"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch UserRole(s) {
	case UserRoleStandard, UserRoleModerator, UserRoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may review uploaded movies.
func (r UserRole) CanModerate() bool {
	return r == UserRoleModerator || r == UserRoleAdmin
}

type User struct {
	ID uuid.UUID `db:"id" json:"id"`

	Handle       string   `db:"handle" json:"handle"`
	Email        *string  `db:"email" json:"email,omitempty"`
	PasswordHash string   `db:"password_hash" json:"-"`
	Role         UserRole `db:"role" json:"role"`
	IsActive     bool     `db:"is_active" json:"is_active"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}
