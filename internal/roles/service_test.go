package roles

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type assignmentKey struct {
	userID int64
	roleID int64
}

type mockRepository struct {
	roles       map[int64]*Role
	assignments map[assignmentKey]Assignment
	nextID      int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles:       make(map[int64]*Role),
		assignments: make(map[assignmentKey]Assignment),
		nextID:      1,
	}
}

func (m *mockRepository) addRole(name string, active, admin bool) *Role {
	role := &Role{ID: m.nextID, Name: name, IsActive: active, IsAdmin: admin}
	m.roles[role.ID] = role
	m.nextID++
	return role
}

func (m *mockRepository) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (m *mockRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return *role, nil
}

func (m *mockRepository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	for _, role := range m.roles {
		if strings.EqualFold(role.Name, name) {
			return *role, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (m *mockRepository) CreateRole(ctx context.Context, name string) (Role, error) {
	if _, err := m.GetRoleByName(ctx, name); err == nil {
		return Role{}, ErrNameTaken
	}
	return *m.addRole(name, true, false), nil
}

func (m *mockRepository) RenameRole(ctx context.Context, id int64, name string) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	role.Name = name
	return *role, nil
}

func (m *mockRepository) SetRoleActive(ctx context.Context, id int64, active bool) error {
	role, ok := m.roles[id]
	if !ok {
		return shared.ErrNotFound
	}
	role.IsActive = active
	return nil
}

func (m *mockRepository) AssignRole(ctx context.Context, userID, roleID, assignedBy int64) error {
	m.assignments[assignmentKey{userID, roleID}] = Assignment{UserID: userID, RoleID: roleID, AssignedBy: assignedBy}
	return nil
}

func (m *mockRepository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	key := assignmentKey{userID, roleID}
	if _, ok := m.assignments[key]; !ok {
		return shared.ErrNotFound
	}
	delete(m.assignments, key)
	return nil
}

func (m *mockRepository) ActiveRolesOf(ctx context.Context, userID int64) ([]Role, error) {
	var out []Role
	for key := range m.assignments {
		if key.userID != userID {
			continue
		}
		if role, ok := m.roles[key.roleID]; ok && role.IsActive {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (m *mockRepository) UsersWithRole(ctx context.Context, roleID int64) ([]int64, error) {
	var out []int64
	for key := range m.assignments {
		if key.roleID == roleID {
			out = append(out, key.userID)
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo, nil, nil), repo
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	svc, repo := newTestService()
	repo.addRole("Sales", true, false)

	_, err := svc.CreateRole(context.Background(), 1, "sales")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestCreateRoleRequiresName(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CreateRole(context.Background(), 1, "   ")
	require.Error(t, err)
}

func TestAdminRoleImmutable(t *testing.T) {
	svc, repo := newTestService()
	admin := repo.addRole(AdminRoleName, true, true)

	_, err := svc.RenameRole(context.Background(), 1, admin.ID, "Root")
	assert.ErrorIs(t, err, ErrAdminImmutable)

	err = svc.DeactivateRole(context.Background(), 1, admin.ID)
	assert.ErrorIs(t, err, ErrAdminImmutable)
}

func TestDeactivateRoleKeepsAssignments(t *testing.T) {
	svc, repo := newTestService()
	role := repo.addRole("Sales", true, false)
	require.NoError(t, svc.AssignRole(context.Background(), 1, 7, role.ID))

	require.NoError(t, svc.DeactivateRole(context.Background(), 1, role.ID))

	// Assignment row survives but no longer contributes to the actor.
	assert.Len(t, repo.assignments, 1)
	ids, err := svc.RolesOf(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAssignRoleRejectsInactiveRole(t *testing.T) {
	svc, repo := newTestService()
	role := repo.addRole("Legacy", false, false)

	err := svc.AssignRole(context.Background(), 1, 7, role.ID)
	assert.ErrorIs(t, err, ErrRoleConflict)
	assert.Empty(t, repo.assignments)
}

func TestAssignRoleRejectsUnknownRole(t *testing.T) {
	svc, repo := newTestService()

	err := svc.AssignRole(context.Background(), 1, 7, 99)
	assert.ErrorIs(t, err, ErrRoleConflict)
	assert.Empty(t, repo.assignments)
}

func TestAssignRoleActiveRole(t *testing.T) {
	svc, repo := newTestService()
	role := repo.addRole("Sales", true, false)

	require.NoError(t, svc.AssignRole(context.Background(), 1, 7, role.ID))
	assert.Len(t, repo.assignments, 1)
}

func TestActorForAggregatesRoles(t *testing.T) {
	svc, repo := newTestService()
	sales := repo.addRole("Sales", true, false)
	lead := repo.addRole("Team Lead", true, false)
	inactive := repo.addRole("Legacy", false, false)

	require.NoError(t, svc.AssignRole(context.Background(), 1, 7, sales.ID))
	require.NoError(t, svc.AssignRole(context.Background(), 1, 7, lead.ID))
	// A row for a later-deactivated role may still exist in storage.
	require.NoError(t, repo.AssignRole(context.Background(), 7, inactive.ID, 1))

	actor, err := svc.ActorFor(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), actor.UserID)
	assert.ElementsMatch(t, []int64{sales.ID, lead.ID}, actor.RoleIDs)
	assert.False(t, actor.IsAdmin)
}

func TestActorForAdminFlag(t *testing.T) {
	svc, repo := newTestService()
	admin := repo.addRole(AdminRoleName, true, true)
	require.NoError(t, svc.AssignRole(context.Background(), 1, 5, admin.ID))

	actor, err := svc.ActorFor(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin)
}

func TestActorForNoAssignments(t *testing.T) {
	svc, _ := newTestService()

	actor, err := svc.ActorFor(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, actor.RoleIDs)
	assert.False(t, actor.IsAdmin)
}

func TestRoleInfoProjection(t *testing.T) {
	svc, repo := newTestService()
	role := repo.addRole("Sales", true, false)

	info, err := svc.RoleInfo(context.Background(), role.ID)
	require.NoError(t, err)
	assert.Equal(t, role.ID, info.ID)
	assert.True(t, info.IsActive)
	assert.False(t, info.IsAdmin)

	_, err = svc.RoleInfo(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
