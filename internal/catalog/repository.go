package catalog

import (
	"context"
)

// RepositoryPort defines data access methods for the page catalog.
type RepositoryPort interface {
	GetByPath(ctx context.Context, path string) (Page, error)
	List(ctx context.Context) ([]Page, error)
	HasAny(ctx context.Context) (bool, error)
	SetActive(ctx context.Context, path string, active bool) error
	// Reconcile runs the callback inside one transaction over the full
	// page set.
	Reconcile(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the write operations reconciliation needs.
type TxRepository interface {
	ListAll(ctx context.Context) ([]Page, error)
	// InsertInactive creates a newly discovered page. New pages carry no
	// access until an administrator grants some.
	InsertInactive(ctx context.Context, page Page) (int64, error)
	UpdateMeta(ctx context.Context, id int64, module, submodule, name string) error
	Deactivate(ctx context.Context, id int64) error
}
