// Package matrix stores and manages the role-permission matrix: one grant
// vector per (role, page) pair. All writes go through the management service
// so admin exemption, role validation and auditing hold everywhere.
package matrix

import (
	"context"
	"errors"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// ErrRoleConflict indicates a grant write against a role that does not exist
// or is no longer active.
var ErrRoleConflict = errors.New("matrix: role missing or inactive")

// RolePermission is one stored grant row.
type RolePermission struct {
	ID        int64
	RoleID    int64
	PageID    int64
	Grants    authz.GrantVector
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PageGrants pairs a page with the vector a role holds on it. ListGrants
// returns these; ReplaceGrants consumes them.
type PageGrants struct {
	PageID    int64
	PagePath  string
	PageName  string
	Module    string
	IsActive  bool
	Grants    authz.GrantVector
}

// RoleInfo is the role projection grant writes validate against.
type RoleInfo struct {
	ID       int64
	Name     string
	IsActive bool
	IsAdmin  bool
}

// RoleSource supplies role lookups; the roles service implements it.
type RoleSource interface {
	RoleInfo(ctx context.Context, roleID int64) (RoleInfo, error)
}
