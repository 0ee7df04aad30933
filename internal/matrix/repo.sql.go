package matrix

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const upsertGrantsSQL = `INSERT INTO role_permissions
(role_id, page_id, can_create, view_all, view_assigned, view_own, edit_all, edit_assigned, edit_own, delete_all, delete_assigned, delete_own, can_export, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW())
ON CONFLICT (role_id, page_id) DO UPDATE SET
can_create=EXCLUDED.can_create, view_all=EXCLUDED.view_all, view_assigned=EXCLUDED.view_assigned, view_own=EXCLUDED.view_own,
edit_all=EXCLUDED.edit_all, edit_assigned=EXCLUDED.edit_assigned, edit_own=EXCLUDED.edit_own,
delete_all=EXCLUDED.delete_all, delete_assigned=EXCLUDED.delete_assigned, delete_own=EXCLUDED.delete_own,
can_export=EXCLUDED.can_export, updated_at=NOW()`

// UpsertGrants writes one grant vector.
func (r *Repository) UpsertGrants(ctx context.Context, roleID, pageID int64, g authz.GrantVector) error {
	_, err := r.pool.Exec(ctx, upsertGrantsSQL, grantArgs(roleID, pageID, g)...)
	return err
}

// ReplaceGrants applies all vectors inside one repeatable-read transaction so
// a concurrent reader never observes a half-written matrix.
func (r *Repository) ReplaceGrants(ctx context.Context, roleID int64, grants []PageGrants) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, pg := range grants {
			if _, err := tx.Exec(ctx, upsertGrantsSQL, grantArgs(roleID, pg.PageID, pg.Grants)...); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListGrants returns the role's grant rows with page metadata, including
// explicit all-false rows.
func (r *Repository) ListGrants(ctx context.Context, roleID int64) ([]PageGrants, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.path, p.display_name, p.module, p.is_active,
rp.can_create, rp.view_all, rp.view_assigned, rp.view_own, rp.edit_all, rp.edit_assigned, rp.edit_own, rp.delete_all, rp.delete_assigned, rp.delete_own, rp.can_export
FROM role_permissions rp
JOIN permission_pages p ON p.id = rp.page_id
WHERE rp.role_id = $1
ORDER BY p.module, p.path`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PageGrants
	for rows.Next() {
		var pg PageGrants
		g := &pg.Grants
		if err := rows.Scan(&pg.PageID, &pg.PagePath, &pg.PageName, &pg.Module, &pg.IsActive,
			&g.Create, &g.ViewAll, &g.ViewAssigned, &g.ViewOwn, &g.EditAll, &g.EditAssigned, &g.EditOwn,
			&g.DeleteAll, &g.DeleteAssigned, &g.DeleteOwn, &g.Export); err != nil {
			return nil, err
		}
		out = append(out, pg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GrantsFor is the resolver's fetch path.
func (r *Repository) GrantsFor(ctx context.Context, roleIDs []int64, pageID int64) ([]authz.GrantVector, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT can_create, view_all, view_assigned, view_own, edit_all, edit_assigned, edit_own, delete_all, delete_assigned, delete_own, can_export
FROM role_permissions
WHERE page_id = $1 AND role_id = ANY($2)`, pageID, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []authz.GrantVector
	for rows.Next() {
		var g authz.GrantVector
		if err := rows.Scan(&g.Create, &g.ViewAll, &g.ViewAssigned, &g.ViewOwn, &g.EditAll, &g.EditAssigned, &g.EditOwn,
			&g.DeleteAll, &g.DeleteAssigned, &g.DeleteOwn, &g.Export); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func grantArgs(roleID, pageID int64, g authz.GrantVector) []any {
	return []any{roleID, pageID, g.Create, g.ViewAll, g.ViewAssigned, g.ViewOwn, g.EditAll, g.EditAssigned, g.EditOwn, g.DeleteAll, g.DeleteAssigned, g.DeleteOwn, g.Export}
}

var _ RepositoryPort = (*Repository)(nil)
