package roles

import (
	"context"
)

// RepositoryPort defines data access methods for roles and assignments.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	CreateRole(ctx context.Context, name string) (Role, error)
	RenameRole(ctx context.Context, id int64, name string) (Role, error)
	SetRoleActive(ctx context.Context, id int64, active bool) error

	AssignRole(ctx context.Context, userID, roleID, assignedBy int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
	ActiveRolesOf(ctx context.Context, userID int64) ([]Role, error)
	UsersWithRole(ctx context.Context, roleID int64) ([]int64, error)
}
