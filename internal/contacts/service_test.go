package contacts

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type mockRepository struct {
	contacts map[int64]Contact
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{contacts: make(map[int64]Contact), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return Contact{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) sorted() []Contact {
	out := make([]Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *mockRepository) List(ctx context.Context, limit, offset int) ([]Contact, int, error) {
	all := m.sorted()
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepository) ListAll(ctx context.Context) ([]Contact, error) {
	return m.sorted(), nil
}

func (m *mockRepository) ListCandidates(ctx context.Context, userID int64) ([]Contact, error) {
	var out []Contact
	for _, c := range m.sorted() {
		assignee, hasAssignee := c.RecordAssignee()
		switch {
		case c.OwnerID == userID:
			out = append(out, c)
		case hasAssignee && assignee == userID:
			out = append(out, c)
		case c.Scope == authz.ScopeTeam || c.Scope == authz.ScopeOrganization:
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRepository) Insert(ctx context.Context, c Contact) (Contact, error) {
	c.ID = m.nextID
	m.nextID++
	m.contacts[c.ID] = c
	return c, nil
}

func (m *mockRepository) Update(ctx context.Context, c Contact) (Contact, error) {
	if _, ok := m.contacts[c.ID]; !ok {
		return Contact{}, shared.ErrNotFound
	}
	m.contacts[c.ID] = c
	return c, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.contacts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

type mockDirectory struct {
	roles map[int64][]int64
}

func (m *mockDirectory) RolesOf(ctx context.Context, userID int64) ([]int64, error) {
	return m.roles[userID], nil
}

func newTestService(roles map[int64][]int64) (*Service, *mockRepository) {
	repo := newMockRepository()
	evaluators := authz.NewEvaluatorFactory(&mockDirectory{roles: roles})
	return NewService(repo, evaluators, nil, nil), repo
}

func seed(t *testing.T, repo *mockRepository, c Contact) Contact {
	t.Helper()
	created, err := repo.Insert(context.Background(), c)
	require.NoError(t, err)
	return created
}

func int64Ptr(v int64) *int64 { return &v }

func TestCreateDefaultsToPrivateOwnedByActor(t *testing.T) {
	svc, repo := newTestService(nil)
	actor := authz.AuthContext{UserID: 10, RoleIDs: []int64{2}}

	created, err := svc.Create(context.Background(), actor, ContactInput{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.OwnerID)
	assert.Equal(t, authz.ScopePrivate, created.Scope)

	stored, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.ScopePrivate, stored.Scope)
}

func TestListFullBreadthReturnsEverything(t *testing.T) {
	svc, repo := newTestService(nil)
	seed(t, repo, Contact{Name: "Ada", OwnerID: 1, Scope: authz.ScopePrivate})
	seed(t, repo, Contact{Name: "Bob", OwnerID: 2, Scope: authz.ScopePrivate})
	seed(t, repo, Contact{Name: "Cyd", OwnerID: 3, Scope: authz.ScopeTeam})

	actor := authz.AuthContext{UserID: 99, RoleIDs: []int64{2}}
	contacts, pagination, err := svc.List(context.Background(), actor, authz.BreadthAll, 1, 20)
	require.NoError(t, err)
	assert.Len(t, contacts, 3)
	assert.Equal(t, 3, pagination.Total)
}

func TestListOwnBreadthFiltersPerRecord(t *testing.T) {
	// Actor 10 holds role 2. User 20 shares that role; user 30 does not.
	svc, repo := newTestService(map[int64][]int64{
		10: {2},
		20: {2},
		30: {5},
	})
	mine := seed(t, repo, Contact{Name: "Mine", OwnerID: 10, Scope: authz.ScopePrivate})
	seed(t, repo, Contact{Name: "Private stranger", OwnerID: 30, Scope: authz.ScopePrivate})
	org := seed(t, repo, Contact{Name: "Org wide", OwnerID: 30, Scope: authz.ScopeOrganization})
	team := seed(t, repo, Contact{Name: "Team mate", OwnerID: 20, Scope: authz.ScopeTeam})
	seed(t, repo, Contact{Name: "Other team", OwnerID: 30, Scope: authz.ScopeTeam})

	actor := authz.AuthContext{UserID: 10, RoleIDs: []int64{2}}
	contacts, pagination, err := svc.List(context.Background(), actor, authz.BreadthOwn, 1, 20)
	require.NoError(t, err)

	ids := make([]int64, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	assert.ElementsMatch(t, []int64{mine.ID, org.ID, team.ID}, ids)
	assert.Equal(t, 3, pagination.Total)
}

func TestRoleRevocationClosesTeamVisibility(t *testing.T) {
	repo := newMockRepository()
	dir := &mockDirectory{roles: map[int64][]int64{20: {2}}}
	svc := NewService(repo, authz.NewEvaluatorFactory(dir), nil, nil)

	team := seed(t, repo, Contact{Name: "Team mate", OwnerID: 20, Scope: authz.ScopeTeam})
	actor := authz.AuthContext{UserID: 10, RoleIDs: []int64{2}}

	_, err := svc.Get(context.Background(), actor, authz.BreadthOwn, team.ID)
	require.NoError(t, err, "shared role grants team visibility")

	// Revoke the owner's role; the next call must see it.
	dir.roles[20] = nil
	_, err = svc.Get(context.Background(), actor, authz.BreadthOwn, team.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	contacts, _, err := svc.List(context.Background(), actor, authz.BreadthOwn, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestListAssignedBreadthIncludesAssignee(t *testing.T) {
	svc, repo := newTestService(nil)
	assigned := seed(t, repo, Contact{Name: "Assigned", OwnerID: 30, AssigneeID: int64Ptr(10), Scope: authz.ScopePrivate})
	seed(t, repo, Contact{Name: "Unrelated", OwnerID: 30, Scope: authz.ScopePrivate})

	actor := authz.AuthContext{UserID: 10}
	contacts, _, err := svc.List(context.Background(), actor, authz.BreadthAssigned, 1, 20)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, assigned.ID, contacts[0].ID)
}

func TestListPaginatesFilteredSet(t *testing.T) {
	svc, repo := newTestService(nil)
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		seed(t, repo, Contact{Name: name, OwnerID: 10, Scope: authz.ScopePrivate})
	}

	actor := authz.AuthContext{UserID: 10}
	page2, pagination, err := svc.List(context.Background(), actor, authz.BreadthOwn, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "C", page2[0].Name)
	assert.Equal(t, "D", page2[1].Name)
	assert.Equal(t, 5, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)

	empty, _, err := svc.List(context.Background(), actor, authz.BreadthOwn, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetForbiddenForPrivateStranger(t *testing.T) {
	svc, repo := newTestService(nil)
	private := seed(t, repo, Contact{Name: "Hidden", OwnerID: 30, Scope: authz.ScopePrivate})

	actor := authz.AuthContext{UserID: 10}
	_, err := svc.Get(context.Background(), actor, authz.BreadthOwn, private.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGetNotFoundPassesThrough(t *testing.T) {
	svc, _ := newTestService(nil)
	actor := authz.AuthContext{UserID: 10}
	_, err := svc.Get(context.Background(), actor, authz.BreadthAll, 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateScopeOverrideDoesNotGrantEdit(t *testing.T) {
	svc, repo := newTestService(nil)
	org := seed(t, repo, Contact{Name: "Org wide", OwnerID: 30, Scope: authz.ScopeOrganization})

	actor := authz.AuthContext{UserID: 10}

	// Visible for reading through the organization scope.
	_, err := svc.Get(context.Background(), actor, authz.BreadthOwn, org.ID)
	require.NoError(t, err)

	// Still not editable.
	_, err = svc.Update(context.Background(), actor, authz.BreadthOwn, org.ID, ContactInput{Name: "Hijack"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateByOwnerKeepsScopeWhenOmitted(t *testing.T) {
	svc, repo := newTestService(nil)
	mine := seed(t, repo, Contact{Name: "Mine", OwnerID: 10, Scope: authz.ScopeTeam})

	actor := authz.AuthContext{UserID: 10}
	updated, err := svc.Update(context.Background(), actor, authz.BreadthOwn, mine.ID, ContactInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, authz.ScopeTeam, updated.Scope)

	widened, err := svc.Update(context.Background(), actor, authz.BreadthOwn, mine.ID, ContactInput{Name: "Renamed", Scope: "organization"})
	require.NoError(t, err)
	assert.Equal(t, authz.ScopeOrganization, widened.Scope)
}

func TestUpdateByAssigneeUnderAssignedBreadth(t *testing.T) {
	svc, repo := newTestService(nil)
	assigned := seed(t, repo, Contact{Name: "Assigned", OwnerID: 30, AssigneeID: int64Ptr(10), Scope: authz.ScopePrivate})

	actor := authz.AuthContext{UserID: 10}

	// Assignment only counts when the breadth reaches assigned records.
	_, err := svc.Update(context.Background(), actor, authz.BreadthOwn, assigned.ID, ContactInput{Name: "Touched"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	updated, err := svc.Update(context.Background(), actor, authz.BreadthAssigned, assigned.ID, ContactInput{Name: "Touched", AssigneeID: int64Ptr(10)})
	require.NoError(t, err)
	assert.Equal(t, "Touched", updated.Name)
}

func TestDeleteRequiresEditAccess(t *testing.T) {
	svc, repo := newTestService(nil)
	mine := seed(t, repo, Contact{Name: "Mine", OwnerID: 10, Scope: authz.ScopePrivate})
	org := seed(t, repo, Contact{Name: "Org wide", OwnerID: 30, Scope: authz.ScopeOrganization})

	actor := authz.AuthContext{UserID: 10}
	assert.ErrorIs(t, svc.Delete(context.Background(), actor, authz.BreadthOwn, org.ID), shared.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), actor, authz.BreadthOwn, mine.ID))

	_, err := repo.Get(context.Background(), mine.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestExportCSVHonorsBreadth(t *testing.T) {
	svc, repo := newTestService(nil)
	seed(t, repo, Contact{Name: "Mine", Email: "mine@example.com", OwnerID: 10, Scope: authz.ScopePrivate})
	seed(t, repo, Contact{Name: "Hidden", OwnerID: 30, Scope: authz.ScopePrivate})

	actor := authz.AuthContext{UserID: 10}

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), actor, authz.BreadthOwn, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,email,phone,owner_id,assignee_id,sharing_scope", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "mine@example.com")

	buf.Reset()
	require.NoError(t, svc.ExportCSV(context.Background(), actor, authz.BreadthAll, &buf))
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
}
