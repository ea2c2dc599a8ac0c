package models

import "time"

// Role represents the closed set of staff roles.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleDepartmentAdmin Role = "department_admin"
	RoleSecurity        Role = "security"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleDepartmentAdmin, RoleSecurity:
		return true
	}
	return false
}

// Profile pairs an identity with its role and department scope.
// The ID equals the identity id (1:1).
type Profile struct {
	ID         string      `db:"id" json:"id"`
	Email      string      `db:"email" json:"email"`
	Role       Role        `db:"role" json:"role"`
	Department *Department `db:"department" json:"department,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// Identity is a credentialed account in the identity store.
type Identity struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
