package authz

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	roles map[int64][]int64
	calls atomic.Int64
}

func (d *stubDirectory) RolesOf(ctx context.Context, userID int64) ([]int64, error) {
	d.calls.Add(1)
	return d.roles[userID], nil
}

type testRecord struct {
	owner    int64
	assignee int64
	scope    SharingScope
}

func (r testRecord) RecordOwner() int64 { return r.owner }

func (r testRecord) RecordAssignee() (int64, bool) {
	return r.assignee, r.assignee != 0
}

func (r testRecord) RecordScope() SharingScope { return r.scope }

func newTestEvaluator(roles map[int64][]int64) (*Evaluator, *stubDirectory) {
	dir := &stubDirectory{roles: roles}
	return NewEvaluator(dir), dir
}

func TestCanAccessBreadthShortCircuits(t *testing.T) {
	eval, dir := newTestEvaluator(nil)
	actor := AuthContext{UserID: 7, RoleIDs: []int64{10}}
	rec := testRecord{owner: 99, scope: ScopePrivate}

	ok, err := eval.CanAccess(context.Background(), actor, rec, BreadthAll, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eval.CanAccess(context.Background(), actor, rec, BreadthNone, false)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Zero(t, dir.calls.Load(), "short circuits must not hit the store")
}

func TestCanAccessAdminAlwaysTrue(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	admin := AuthContext{UserID: 1, IsAdmin: true}
	rec := testRecord{owner: 99, scope: ScopePrivate}

	for _, breadth := range []Breadth{BreadthNone, BreadthOwn, BreadthAssigned, BreadthAll} {
		for _, forEdit := range []bool{false, true} {
			ok, err := eval.CanAccess(context.Background(), admin, rec, breadth, forEdit)
			require.NoError(t, err)
			assert.True(t, ok, "breadth=%s forEdit=%v", breadth, forEdit)
		}
	}
}

func TestCanAccessOwnerAlways(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	actor := AuthContext{UserID: 7}

	for _, scope := range []SharingScope{ScopePrivate, ScopeTeam, ScopeOrganization} {
		rec := testRecord{owner: 7, scope: scope}
		ok, err := eval.CanAccess(context.Background(), actor, rec, BreadthOwn, true)
		require.NoError(t, err)
		assert.True(t, ok, "owner edit under scope %s", scope)
	}
}

func TestCanAccessAssignedBreadth(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	actor := AuthContext{UserID: 7, RoleIDs: []int64{30}}

	// Private record assigned to the actor.
	rec := testRecord{owner: 99, assignee: 7, scope: ScopePrivate}
	ok, err := eval.CanAccess(context.Background(), actor, rec, BreadthAssigned, false)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same record, different assignee.
	rec.assignee = 8
	ok, err = eval.CanAccess(context.Background(), actor, rec, BreadthAssigned, false)
	require.NoError(t, err)
	assert.False(t, ok)

	// Assignee does not count under breadth Own.
	rec.assignee = 7
	ok, err = eval.CanAccess(context.Background(), actor, rec, BreadthOwn, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessOrganizationScopeViewNotEdit(t *testing.T) {
	eval, _ := newTestEvaluator(nil)
	actor := AuthContext{UserID: 7, RoleIDs: []int64{30}}
	rec := testRecord{owner: 99, scope: ScopeOrganization}

	ok, err := eval.CanAccess(context.Background(), actor, rec, BreadthOwn, false)
	require.NoError(t, err)
	assert.True(t, ok, "organization scope opens view to everyone")

	ok, err = eval.CanAccess(context.Background(), actor, rec, BreadthOwn, true)
	require.NoError(t, err)
	assert.False(t, ok, "organization scope must not open edit")
}

func TestCanAccessTeamScopeRoleIntersection(t *testing.T) {
	eval, _ := newTestEvaluator(map[int64][]int64{
		99: {10, 30},
		98: {40},
	})
	actor := AuthContext{UserID: 7, RoleIDs: []int64{30}}

	ok, err := eval.CanAccess(context.Background(), actor, testRecord{owner: 99, scope: ScopeTeam}, BreadthOwn, false)
	require.NoError(t, err)
	assert.True(t, ok, "shared role 30 grants team visibility")

	ok, err = eval.CanAccess(context.Background(), actor, testRecord{owner: 98, scope: ScopeTeam}, BreadthOwn, false)
	require.NoError(t, err)
	assert.False(t, ok, "disjoint role sets deny team visibility")

	// Team scope never opens edit to peers.
	ok, err = eval.CanAccess(context.Background(), actor, testRecord{owner: 99, scope: ScopeTeam}, BreadthOwn, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessPrivateDenied(t *testing.T) {
	eval, _ := newTestEvaluator(map[int64][]int64{99: {30}})
	actor := AuthContext{UserID: 7, RoleIDs: []int64{30}}
	rec := testRecord{owner: 99, scope: ScopePrivate}

	ok, err := eval.CanAccess(context.Background(), actor, rec, BreadthOwn, false)
	require.NoError(t, err)
	assert.False(t, ok, "shared role does not pierce private scope")
}

func TestParseSharingScopeUnknownFallsToPrivate(t *testing.T) {
	assert.Equal(t, ScopePrivate, ParseSharingScope("everyone"))
	assert.Equal(t, ScopePrivate, ParseSharingScope(""))
	assert.Equal(t, ScopeTeam, ParseSharingScope(" Team "))
	assert.Equal(t, ScopeOrganization, ParseSharingScope("ORGANIZATION"))
}

func TestFilterVisible(t *testing.T) {
	eval, _ := newTestEvaluator(map[int64][]int64{5: {30}})
	actor := AuthContext{UserID: 7, RoleIDs: []int64{30}}

	records := []testRecord{
		{owner: 7, scope: ScopePrivate},                // own
		{owner: 5, scope: ScopeTeam},                   // shared role
		{owner: 5, scope: ScopePrivate},                // hidden
		{owner: 5, assignee: 7, scope: ScopePrivate},   // assigned
		{owner: 5, scope: ScopeOrganization},           // org scope
		{owner: 5, assignee: 8, scope: ScopePrivate},   // hidden
	}

	visible, err := FilterVisible(context.Background(), eval, actor, BreadthAssigned, records)
	require.NoError(t, err)
	require.Len(t, visible, 4)
	assert.Equal(t, int64(7), visible[0].owner)
}

func TestCachedRoleDirectoryFetchesOncePerUser(t *testing.T) {
	dir := &stubDirectory{roles: map[int64][]int64{5: {30}}}
	cached := NewCachedRoleDirectory(dir)

	for i := 0; i < 5; i++ {
		roles, err := cached.RolesOf(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, []int64{30}, roles)
	}
	assert.Equal(t, int64(1), dir.calls.Load())
}

func TestEvaluatorFactoryDoesNotCacheAcrossEvaluators(t *testing.T) {
	dir := &stubDirectory{roles: map[int64][]int64{5: {30}}}
	factory := NewEvaluatorFactory(dir)
	actor := AuthContext{UserID: 7, RoleIDs: []int64{30}}
	record := testRecord{owner: 5, scope: ScopeTeam}

	ok, err := factory.New().CanAccess(context.Background(), actor, record, BreadthOwn, false)
	require.NoError(t, err)
	assert.True(t, ok)

	dir.roles[5] = nil
	ok, err = factory.New().CanAccess(context.Background(), actor, record, BreadthOwn, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(2), dir.calls.Load())
}

func TestGrantVectorUnion(t *testing.T) {
	a := GrantVector{ViewOwn: true, Create: true}
	b := GrantVector{ViewAll: true, DeleteAssigned: true}
	merged := a.Union(b)

	assert.True(t, merged.Create)
	assert.True(t, merged.ViewOwn)
	assert.True(t, merged.ViewAll)
	assert.True(t, merged.DeleteAssigned)
	assert.Equal(t, BreadthAll, merged.BreadthFor(ActionView))
	assert.Equal(t, BreadthAssigned, merged.BreadthFor(ActionDelete))
	assert.Equal(t, BreadthNone, merged.BreadthFor(ActionEdit))
}
