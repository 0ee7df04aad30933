// Package catalog maintains the registry of protected page surfaces. Pages
// are declared in code per business module and reconciled against the store
// on deployment; retired pages are deactivated, never deleted, so historical
// grant rows stay intact.
package catalog

import "time"

// Page is one protected page/action surface.
type Page struct {
	ID        int64
	Path      string
	Module    string
	Submodule string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReconcileReport summarises one reconciliation run.
type ReconcileReport struct {
	Discovered  []string
	Deactivated []string
	Refreshed   int
}
