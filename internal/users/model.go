// Package users is the read side of the user directory. Accounts are
// provisioned by the external auth system; this service resolves names
// and roles for assignment dropdowns and joins.
package users

import (
	"time"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// User is one account. PasswordHash is a bcrypt digest maintained for
// the auth collaborator and never serialised.
type User struct {
	ID           int64       `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	Role         shared.Role `json:"role" db:"role"`
	Active       bool        `json:"active" db:"active"`
	PasswordHash string      `json:"-" db:"password_hash"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}
