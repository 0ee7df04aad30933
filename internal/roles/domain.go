// Package roles manages role lifecycle and user-role assignments. Roles are
// soft-deactivated, never removed, while grant rows or assignments reference
// them.
package roles

import (
	"errors"
	"time"
)

// AdminRoleName is the display name of the distinguished Admin role. The
// role is seeded once; its admin standing lives in a typed flag, not in
// name matching.
const AdminRoleName = "Admin"

var (
	// ErrAdminImmutable indicates an attempt to rename or deactivate the
	// Admin role.
	ErrAdminImmutable = errors.New("roles: admin role cannot be modified")
	// ErrNameTaken indicates a case-insensitive name collision.
	ErrNameTaken = errors.New("roles: name already in use")
	// ErrRoleConflict indicates an assignment targeting a missing or
	// inactive role.
	ErrRoleConflict = errors.New("roles: role missing or inactive")
)

// Role represents a role for management.
type Role struct {
	ID        int64
	Name      string
	IsActive  bool
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assignment links a user to a role, with the assigning actor for audit.
type Assignment struct {
	UserID     int64
	RoleID     int64
	AssignedBy int64
	CreatedAt  time.Time
}
