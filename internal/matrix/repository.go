package matrix

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// RepositoryPort defines data access methods for the permission matrix.
type RepositoryPort interface {
	// UpsertGrants writes the vector for (role, page), creating the row on
	// first write. All-false vectors persist; an explicit "no access" row
	// differs from an unconfigured pair.
	UpsertGrants(ctx context.Context, roleID, pageID int64, grants authz.GrantVector) error
	// ReplaceGrants applies every vector in one transaction.
	ReplaceGrants(ctx context.Context, roleID int64, grants []PageGrants) error
	// ListGrants returns the role's rows joined with page metadata.
	ListGrants(ctx context.Context, roleID int64) ([]PageGrants, error)
	// GrantsFor returns the vectors the given roles hold on the page.
	GrantsFor(ctx context.Context, roleIDs []int64, pageID int64) ([]authz.GrantVector, error)
}
