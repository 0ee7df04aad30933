package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles matrix management business logic.
type Service struct {
	repo   RepositoryPort
	roles  RoleSource
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleSource, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, roles: roles, audit: audit, logger: logger}
}

// SetGrants writes one grant vector for (role, page). Writing an all-false
// vector keeps the row; "no access" is a configured state. Writes against
// an admin role are silently ignored, admin access never flows through the
// matrix. Grants on inactive pages are stored but stay inert until the page
// is reactivated.
func (s *Service) SetGrants(ctx context.Context, actorID, roleID, pageID int64, grants authz.GrantVector) error {
	role, err := s.checkRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsAdmin {
		return nil
	}
	if err := s.repo.UpsertGrants(ctx, roleID, pageID, grants); err != nil {
		return fmt.Errorf("matrix: set grants role=%d page=%d: %w", roleID, pageID, err)
	}
	s.recordAudit(ctx, actorID, roleID, "permissions.set", map[string]any{"page_id": pageID, "grants": grants})
	return nil
}

// ReplaceGrants applies a full grant sheet for a role as one logical,
// atomic change.
func (s *Service) ReplaceGrants(ctx context.Context, actorID, roleID int64, grants []PageGrants) error {
	role, err := s.checkRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsAdmin {
		return nil
	}
	if err := s.repo.ReplaceGrants(ctx, roleID, grants); err != nil {
		return fmt.Errorf("matrix: replace grants role=%d: %w", roleID, err)
	}
	s.recordAudit(ctx, actorID, roleID, "permissions.replace", map[string]any{"pages": len(grants)})
	return nil
}

// ListGrants returns every configured row for the role, all-false rows
// included.
func (s *Service) ListGrants(ctx context.Context, roleID int64) ([]PageGrants, error) {
	if _, err := s.roles.RoleInfo(ctx, roleID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrRoleConflict
		}
		return nil, err
	}
	return s.repo.ListGrants(ctx, roleID)
}

// GrantsFor implements authz.MatrixSource for the resolver.
func (s *Service) GrantsFor(ctx context.Context, roleIDs []int64, pageID int64) ([]authz.GrantVector, error) {
	return s.repo.GrantsFor(ctx, roleIDs, pageID)
}

func (s *Service) checkRole(ctx context.Context, roleID int64) (RoleInfo, error) {
	role, err := s.roles.RoleInfo(ctx, roleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return RoleInfo{}, ErrRoleConflict
		}
		return RoleInfo{}, err
	}
	if !role.IsActive {
		return RoleInfo{}, ErrRoleConflict
	}
	return role, nil
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
		s.logger.Warn("audit grant change", slog.Any("error", err))
	}
}

var _ authz.MatrixSource = (*Service)(nil)
