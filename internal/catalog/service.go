package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles page catalog business logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// PageByPath returns the page registered under the resolver's page path,
// mapping missing rows onto the resolver's sentinel.
func (s *Service) PageByPath(ctx context.Context, path string) (authz.Page, error) {
	page, err := s.repo.GetByPath(ctx, path)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return authz.Page{}, authz.ErrPageNotFound
		}
		return authz.Page{}, err
	}
	return authz.Page{ID: page.ID, Path: page.Path, Module: page.Module, IsActive: page.IsActive}, nil
}

// HasPages reports whether any page has been provisioned.
func (s *Service) HasPages(ctx context.Context) (bool, error) {
	return s.repo.HasAny(ctx)
}

// List returns all pages, active and retired.
func (s *Service) List(ctx context.Context) ([]Page, error) {
	return s.repo.List(ctx)
}

// Activate enables a page for non-admin resolution.
func (s *Service) Activate(ctx context.Context, path string) error {
	return s.repo.SetActive(ctx, path, true)
}

// Deactivate retires a page while keeping its grant rows.
func (s *Service) Deactivate(ctx context.Context, path string) error {
	return s.repo.SetActive(ctx, path, false)
}

// Reconcile aligns the stored catalog with the declared page set in one
// transaction. Newly discovered pages land inactive; stored pages absent
// from the declarations are deactivated; display metadata is refreshed for
// the rest. Maintenance-path only, typically run on deployment.
func (s *Service) Reconcile(ctx context.Context, defs []shared.PageDef) (ReconcileReport, error) {
	declared := make(map[string]shared.PageDef, len(defs))
	for _, def := range defs {
		path := strings.TrimSpace(def.Path)
		if path == "" {
			return ReconcileReport{}, errors.New("catalog: page definition with empty path")
		}
		if _, dup := declared[path]; dup {
			return ReconcileReport{}, fmt.Errorf("catalog: duplicate page path %q", path)
		}
		declared[path] = def
	}

	var report ReconcileReport
	err := s.repo.Reconcile(ctx, func(ctx context.Context, tx TxRepository) error {
		stored, err := tx.ListAll(ctx)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(stored))
		for _, page := range stored {
			seen[page.Path] = struct{}{}
			def, ok := declared[page.Path]
			if !ok {
				if page.IsActive {
					if err := tx.Deactivate(ctx, page.ID); err != nil {
						return err
					}
					report.Deactivated = append(report.Deactivated, page.Path)
				}
				continue
			}
			if def.Module != page.Module || def.Submodule != page.Submodule || def.Name != page.Name {
				if err := tx.UpdateMeta(ctx, page.ID, def.Module, def.Submodule, def.Name); err != nil {
					return err
				}
				report.Refreshed++
			}
		}
		for path, def := range declared {
			if _, ok := seen[path]; ok {
				continue
			}
			if _, err := tx.InsertInactive(ctx, Page{Path: path, Module: def.Module, Submodule: def.Submodule, Name: def.Name}); err != nil {
				return err
			}
			report.Discovered = append(report.Discovered, path)
		}
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}
	if s.logger != nil {
		s.logger.Info("catalog reconciled",
			slog.Int("discovered", len(report.Discovered)),
			slog.Int("deactivated", len(report.Deactivated)),
			slog.Int("refreshed", report.Refreshed))
	}
	return report, nil
}

var _ authz.CatalogSource = (*Service)(nil)
