package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const pageColumns = `id, path, module, submodule, display_name, is_active, created_at, updated_at`

// GetByPath fetches one page by its unique path.
func (r *Repository) GetByPath(ctx context.Context, path string) (Page, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pageColumns+` FROM permission_pages WHERE path=$1`, path)
	page, err := scanPage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Page{}, shared.ErrNotFound
		}
		return Page{}, err
	}
	return page, nil
}

// List returns every page ordered by module then path.
func (r *Repository) List(ctx context.Context) ([]Page, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+pageColumns+` FROM permission_pages ORDER BY module, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPages(rows)
}

// HasAny reports whether the catalog has been provisioned at all.
func (r *Repository) HasAny(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM permission_pages)`).Scan(&exists)
	return exists, err
}

// SetActive flips the active flag for one page.
func (r *Repository) SetActive(ctx context.Context, path string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE permission_pages SET is_active=$2, updated_at=NOW() WHERE path=$1`, path, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Reconcile executes the callback inside a repeatable-read transaction.
func (r *Repository) Reconcile(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) ListAll(ctx context.Context) ([]Page, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+pageColumns+` FROM permission_pages ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPages(rows)
}

func (r *txRepository) InsertInactive(ctx context.Context, page Page) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO permission_pages (path, module, submodule, display_name, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,FALSE,NOW(),NOW()) RETURNING id`, page.Path, page.Module, page.Submodule, page.Name).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateMeta(ctx context.Context, id int64, module, submodule, name string) error {
	_, err := r.tx.Exec(ctx, `UPDATE permission_pages SET module=$2, submodule=$3, display_name=$4, updated_at=NOW() WHERE id=$1`, id, module, submodule, name)
	return err
}

func (r *txRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE permission_pages SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	return err
}

func scanPage(row pgx.Row) (Page, error) {
	var page Page
	err := row.Scan(&page.ID, &page.Path, &page.Module, &page.Submodule, &page.Name, &page.IsActive, &page.CreatedAt, &page.UpdatedAt)
	return page, err
}

func collectPages(rows pgx.Rows) ([]Page, error) {
	var pages []Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

var _ RepositoryPort = (*Repository)(nil)
