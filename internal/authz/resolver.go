package authz

import (
	"context"
	"errors"
	"fmt"
)

// ErrPageNotFound indicates the catalog holds no page for the given path.
var ErrPageNotFound = errors.New("authz: page not found")

// Page is the catalog projection the resolver needs.
type Page struct {
	ID       int64
	Path     string
	Module   string
	IsActive bool
}

// CatalogSource supplies page lookups for the resolver.
type CatalogSource interface {
	// PageByPath returns the page registered under path, or ErrPageNotFound.
	PageByPath(ctx context.Context, path string) (Page, error)
	// HasPages reports whether any page has been provisioned at all.
	HasPages(ctx context.Context) (bool, error)
}

// MatrixSource supplies grant rows for the resolver.
type MatrixSource interface {
	// GrantsFor returns the grant vectors held by the given roles on the
	// page. Roles with no row for the page contribute nothing.
	GrantsFor(ctx context.Context, roleIDs []int64, pageID int64) ([]GrantVector, error)
}

// Resolver answers "may this actor perform this action family on this page,
// and at what breadth". One instance serves all modules.
type Resolver struct {
	catalog   CatalogSource
	matrix    MatrixSource
	bootstrap bool
}

// NewResolver constructs a Resolver. bootstrap enables the narrow
// first-run affordance: with the flag on and the catalog entirely empty,
// every check resolves to All so the system stays operable before the seed
// step has provisioned anything. Once a single page exists the affordance is
// dead and absence of configuration denies.
func NewResolver(catalog CatalogSource, matrix MatrixSource, bootstrap bool) *Resolver {
	return &Resolver{catalog: catalog, matrix: matrix, bootstrap: bootstrap}
}

// Resolve returns the effective breadth for the actor on the page. Policy
// outcomes are values; only store failures surface as errors, and the caller
// treats those as denial too.
func (r *Resolver) Resolve(ctx context.Context, actor AuthContext, pagePath string, family ActionFamily) (Breadth, error) {
	// Admin bypasses the matrix entirely, inactive pages included.
	if actor.IsAdmin {
		return BreadthAll, nil
	}

	page, err := r.catalog.PageByPath(ctx, pagePath)
	if err != nil {
		if errors.Is(err, ErrPageNotFound) {
			return r.resolveUnprovisioned(ctx)
		}
		return BreadthNone, fmt.Errorf("authz: lookup page %q: %w", pagePath, err)
	}
	if !page.IsActive {
		// Stale grant rows must not keep retired surfaces reachable.
		return BreadthNone, nil
	}

	if len(actor.RoleIDs) == 0 {
		return BreadthNone, nil
	}

	grants, err := r.matrix.GrantsFor(ctx, actor.RoleIDs, page.ID)
	if err != nil {
		return BreadthNone, fmt.Errorf("authz: fetch grants for page %q: %w", pagePath, err)
	}
	if len(grants) == 0 {
		return BreadthNone, nil
	}

	merged := GrantVector{}
	for _, g := range grants {
		merged = merged.Union(g)
	}
	return merged.BreadthFor(family), nil
}

// Allowed is a convenience wrapper for create/export style checks.
func (r *Resolver) Allowed(ctx context.Context, actor AuthContext, pagePath string, family ActionFamily) (bool, error) {
	breadth, err := r.Resolve(ctx, actor, pagePath, family)
	if err != nil {
		return false, err
	}
	return breadth.Allowed(), nil
}

func (r *Resolver) resolveUnprovisioned(ctx context.Context) (Breadth, error) {
	if !r.bootstrap {
		return BreadthNone, nil
	}
	provisioned, err := r.catalog.HasPages(ctx)
	if err != nil {
		return BreadthNone, fmt.Errorf("authz: bootstrap probe: %w", err)
	}
	if provisioned {
		return BreadthNone, nil
	}
	return BreadthAll, nil
}
