package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	pages map[string]Page
	err   error
}

func (c *stubCatalog) PageByPath(ctx context.Context, path string) (Page, error) {
	if c.err != nil {
		return Page{}, c.err
	}
	page, ok := c.pages[path]
	if !ok {
		return Page{}, ErrPageNotFound
	}
	return page, nil
}

func (c *stubCatalog) HasPages(ctx context.Context) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return len(c.pages) > 0, nil
}

type stubMatrix struct {
	// grants maps roleID -> pageID -> vector.
	grants map[int64]map[int64]GrantVector
	err    error
}

func (m *stubMatrix) GrantsFor(ctx context.Context, roleIDs []int64, pageID int64) ([]GrantVector, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []GrantVector
	for _, roleID := range roleIDs {
		if vec, ok := m.grants[roleID][pageID]; ok {
			out = append(out, vec)
		}
	}
	return out, nil
}

func newTestResolver(bootstrap bool) (*Resolver, *stubCatalog, *stubMatrix) {
	catalog := &stubCatalog{pages: map[string]Page{
		"crm/contacts": {ID: 1, Path: "crm/contacts", Module: "crm", IsActive: true},
		"crm/leads":    {ID: 2, Path: "crm/leads", Module: "crm", IsActive: true},
		"hr/payroll":   {ID: 3, Path: "hr/payroll", Module: "hr", IsActive: false},
	}}
	matrix := &stubMatrix{grants: map[int64]map[int64]GrantVector{}}
	return NewResolver(catalog, matrix, bootstrap), catalog, matrix
}

func TestResolveAdminBypassesMatrix(t *testing.T) {
	resolver, _, _ := newTestResolver(false)
	admin := AuthContext{UserID: 1, IsAdmin: true}

	for _, family := range []ActionFamily{ActionCreate, ActionView, ActionEdit, ActionDelete, ActionExport} {
		breadth, err := resolver.Resolve(context.Background(), admin, "crm/contacts", family)
		require.NoError(t, err)
		assert.Equal(t, BreadthAll, breadth, "family %s", family)
	}

	// Even pages nobody configured, and inactive ones.
	breadth, err := resolver.Resolve(context.Background(), admin, "hr/payroll", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthAll, breadth)
}

func TestResolveNoRolesDenied(t *testing.T) {
	resolver, _, _ := newTestResolver(false)

	breadth, err := resolver.Resolve(context.Background(), AuthContext{UserID: 7}, "crm/contacts", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthNone, breadth)
}

func TestResolveUnionAcrossRoles(t *testing.T) {
	resolver, _, matrix := newTestResolver(false)
	matrix.grants[10] = map[int64]GrantVector{1: {ViewOwn: true}}
	matrix.grants[20] = map[int64]GrantVector{1: {ViewAll: true}}

	actor := AuthContext{UserID: 7, RoleIDs: []int64{10, 20}}
	breadth, err := resolver.Resolve(context.Background(), actor, "crm/contacts", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthAll, breadth, "second role widens, never narrows")
}

func TestResolveCreateExportAnyRole(t *testing.T) {
	resolver, _, matrix := newTestResolver(false)
	matrix.grants[10] = map[int64]GrantVector{1: {}}
	matrix.grants[20] = map[int64]GrantVector{1: {Create: true, Export: true}}

	actor := AuthContext{UserID: 7, RoleIDs: []int64{10, 20}}

	allowed, err := resolver.Allowed(context.Background(), actor, "crm/contacts", ActionCreate)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = resolver.Allowed(context.Background(), actor, "crm/contacts", ActionExport)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Neither role grants edit.
	breadth, err := resolver.Resolve(context.Background(), actor, "crm/contacts", ActionEdit)
	require.NoError(t, err)
	assert.Equal(t, BreadthNone, breadth)
}

func TestResolveNoRowDenied(t *testing.T) {
	resolver, _, matrix := newTestResolver(false)
	matrix.grants[10] = map[int64]GrantVector{2: {ViewAll: true}}

	actor := AuthContext{UserID: 7, RoleIDs: []int64{10}}
	breadth, err := resolver.Resolve(context.Background(), actor, "crm/contacts", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthNone, breadth)
}

func TestResolveExplicitNoAccessRowDenies(t *testing.T) {
	resolver, _, matrix := newTestResolver(false)
	matrix.grants[10] = map[int64]GrantVector{1: {}}

	actor := AuthContext{UserID: 7, RoleIDs: []int64{10}}
	breadth, err := resolver.Resolve(context.Background(), actor, "crm/contacts", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthNone, breadth)
}

func TestResolveInactivePageDenied(t *testing.T) {
	resolver, _, matrix := newTestResolver(false)
	matrix.grants[10] = map[int64]GrantVector{3: {ViewAll: true, EditAll: true}}

	actor := AuthContext{UserID: 7, RoleIDs: []int64{10}}
	breadth, err := resolver.Resolve(context.Background(), actor, "hr/payroll", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthNone, breadth, "stale grants must not reach retired pages")
}

func TestResolveUnknownPageDenied(t *testing.T) {
	resolver, _, _ := newTestResolver(false)

	actor := AuthContext{UserID: 7, RoleIDs: []int64{10}}
	breadth, err := resolver.Resolve(context.Background(), actor, "crm/unknown", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthNone, breadth)
}

func TestResolveBootstrapMode(t *testing.T) {
	empty := &stubCatalog{pages: map[string]Page{}}
	matrix := &stubMatrix{grants: map[int64]map[int64]GrantVector{}}
	actor := AuthContext{UserID: 7, RoleIDs: []int64{10}}

	// Flag on, catalog empty: open.
	resolver := NewResolver(empty, matrix, true)
	breadth, err := resolver.Resolve(context.Background(), actor, "crm/contacts", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthAll, breadth)

	// Flag off, catalog empty: closed.
	resolver = NewResolver(empty, matrix, false)
	breadth, err = resolver.Resolve(context.Background(), actor, "crm/contacts", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthNone, breadth)

	// Flag on but catalog provisioned: unknown paths stay closed.
	resolver, _, _ = newTestResolver(true)
	breadth, err = resolver.Resolve(context.Background(), actor, "crm/unknown", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthNone, breadth)
}

func TestResolveStoreErrorSurfaces(t *testing.T) {
	catalog := &stubCatalog{err: errors.New("connection refused")}
	resolver := NewResolver(catalog, &stubMatrix{}, false)

	actor := AuthContext{UserID: 7, RoleIDs: []int64{10}}
	breadth, err := resolver.Resolve(context.Background(), actor, "crm/contacts", ActionView)
	require.Error(t, err)
	assert.Equal(t, BreadthNone, breadth)
}

func TestResolveLeadsAssignedScenario(t *testing.T) {
	resolver, _, matrix := newTestResolver(false)
	// Sales role: view_assigned only on leads.
	matrix.grants[30] = map[int64]GrantVector{2: {ViewAssigned: true}}

	actor := AuthContext{UserID: 7, RoleIDs: []int64{30}}
	breadth, err := resolver.Resolve(context.Background(), actor, "crm/leads", ActionView)
	require.NoError(t, err)
	assert.Equal(t, BreadthAssigned, breadth)
}
