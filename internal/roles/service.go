package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/matrix"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles role business logic. It also implements the role lookup
// ports the matrix service and the visibility evaluator depend on.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role with a unique, case-insensitive name.
func (s *Service) CreateRole(ctx context.Context, actorID int64, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: role name required")
	}
	role, err := s.repo.CreateRole(ctx, name)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, actorID, role.ID, "roles.create", map[string]any{"name": name})
	return role, nil
}

// RenameRole updates a role's display name. The Admin role is immutable.
func (s *Service) RenameRole(ctx context.Context, actorID, id int64, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: role name required")
	}
	existing, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if existing.IsAdmin {
		return Role{}, ErrAdminImmutable
	}
	role, err := s.repo.RenameRole(ctx, id, name)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, actorID, id, "roles.rename", map[string]any{"from": existing.Name, "to": name})
	return role, nil
}

// DeactivateRole soft-deactivates a role. Assignments and grant rows stay in
// place; the role simply stops contributing to resolution.
func (s *Service) DeactivateRole(ctx context.Context, actorID, id int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsAdmin {
		return ErrAdminImmutable
	}
	if err := s.repo.SetRoleActive(ctx, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, id, "roles.deactivate", nil)
	return nil
}

// ReactivateRole re-enables a deactivated role.
func (s *Service) ReactivateRole(ctx context.Context, actorID, id int64) error {
	if err := s.repo.SetRoleActive(ctx, id, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, id, "roles.reactivate", nil)
	return nil
}

// AssignRole binds a user to a role. Only active roles are assignable; a
// missing or deactivated role yields ErrRoleConflict.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrRoleConflict
		}
		return err
	}
	if !role.IsActive {
		return ErrRoleConflict
	}
	if err := s.repo.AssignRole(ctx, userID, roleID, actorID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, roleID, "roles.assign", map[string]any{"user_id": userID})
	return nil
}

// RemoveRole unbinds a user from a role.
func (s *Service) RemoveRole(ctx context.Context, actorID, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, roleID, "roles.remove", map[string]any{"user_id": userID})
	return nil
}

// ActorFor builds the AuthContext for a user from their active assignments.
// Zero assignments produce an actor with no roles, which the resolver
// denies.
func (s *Service) ActorFor(ctx context.Context, userID int64) (authz.AuthContext, error) {
	active, err := s.repo.ActiveRolesOf(ctx, userID)
	if err != nil {
		return authz.AuthContext{}, fmt.Errorf("roles: actor for user %d: %w", userID, err)
	}
	actor := authz.AuthContext{UserID: userID, RoleIDs: make([]int64, 0, len(active))}
	for _, role := range active {
		actor.RoleIDs = append(actor.RoleIDs, role.ID)
		if role.IsAdmin {
			actor.IsAdmin = true
		}
	}
	return actor, nil
}

// RolesOf implements authz.RoleDirectory: active role IDs only.
func (s *Service) RolesOf(ctx context.Context, userID int64) ([]int64, error) {
	active, err := s.repo.ActiveRolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(active))
	for i, role := range active {
		ids[i] = role.ID
	}
	return ids, nil
}

// RoleInfo implements matrix.RoleSource.
func (s *Service) RoleInfo(ctx context.Context, roleID int64) (matrix.RoleInfo, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return matrix.RoleInfo{}, err
	}
	return matrix.RoleInfo{ID: role.ID, Name: role.Name, IsActive: role.IsActive, IsAdmin: role.IsAdmin}, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, roleID int64, action string, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: fmt.Sprintf("%d", roleID),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit role change", slog.Any("error", err))
	}
}

var (
	_ authz.RoleDirectory = (*Service)(nil)
	_ matrix.RoleSource   = (*Service)(nil)
)
