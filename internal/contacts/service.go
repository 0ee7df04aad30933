package contacts

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service applies record-level visibility on top of contact persistence. The
// page gate has already run by the time a call lands here; what remains is
// narrowing row access to the actor's breadth. Every operation draws a fresh
// evaluator from the factory so the owner role cache never outlives one call.
type Service struct {
	repo       RepositoryPort
	evaluators *authz.EvaluatorFactory
	audit      *shared.AuditLogger
	logger     *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, evaluators *authz.EvaluatorFactory, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, evaluators: evaluators, audit: audit, logger: logger}
}

// List returns the page of contacts the actor may see under the given
// breadth. Full breadth pages in SQL; narrower breadths fetch the candidate
// set, run each row through the evaluator, and page in memory.
func (s *Service) List(ctx context.Context, actor authz.AuthContext, breadth authz.Breadth, page, perPage int) ([]Contact, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}

	if breadth == authz.BreadthAll {
		contacts, total, err := s.repo.List(ctx, perPage, (page-1)*perPage)
		if err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("contacts: list: %w", err)
		}
		return contacts, shared.NewPagination(page, perPage, total), nil
	}

	visible, err := s.visibleSet(ctx, actor, breadth)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, len(visible))
	start := pagination.Offset()
	if start >= len(visible) {
		return nil, pagination, nil
	}
	end := start + perPage
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end], pagination, nil
}

// Get returns one contact if the actor's breadth reaches it.
func (s *Service) Get(ctx context.Context, actor authz.AuthContext, breadth authz.Breadth, id int64) (Contact, error) {
	contact, err := s.repo.Get(ctx, id)
	if err != nil {
		return Contact{}, err
	}
	ok, err := s.evaluators.New().CanAccess(ctx, actor, contact, breadth, false)
	if err != nil {
		return Contact{}, fmt.Errorf("contacts: evaluate %d: %w", id, err)
	}
	if !ok {
		return Contact{}, shared.ErrForbidden
	}
	return contact, nil
}

// Create stores a new contact owned by the actor. An omitted scope defaults
// to private.
func (s *Service) Create(ctx context.Context, actor authz.AuthContext, input ContactInput) (Contact, error) {
	contact := Contact{
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		OwnerID:    actor.UserID,
		AssigneeID: input.AssigneeID,
		Scope:      authz.ParseSharingScope(input.Scope),
	}
	created, err := s.repo.Insert(ctx, contact)
	if err != nil {
		return Contact{}, fmt.Errorf("contacts: create: %w", err)
	}
	s.recordAudit(ctx, actor.UserID, created.ID, "contacts.create", nil)
	return created, nil
}

// Update rewrites a contact after an edit-mode visibility check.
func (s *Service) Update(ctx context.Context, actor authz.AuthContext, breadth authz.Breadth, id int64, input ContactInput) (Contact, error) {
	contact, err := s.repo.Get(ctx, id)
	if err != nil {
		return Contact{}, err
	}
	ok, err := s.evaluators.New().CanAccess(ctx, actor, contact, breadth, true)
	if err != nil {
		return Contact{}, fmt.Errorf("contacts: evaluate %d: %w", id, err)
	}
	if !ok {
		return Contact{}, shared.ErrForbidden
	}

	contact.Name = input.Name
	contact.Email = input.Email
	contact.Phone = input.Phone
	contact.AssigneeID = input.AssigneeID
	if input.Scope != "" {
		contact.Scope = authz.ParseSharingScope(input.Scope)
	}
	updated, err := s.repo.Update(ctx, contact)
	if err != nil {
		return Contact{}, fmt.Errorf("contacts: update %d: %w", id, err)
	}
	s.recordAudit(ctx, actor.UserID, id, "contacts.update", nil)
	return updated, nil
}

// Delete removes a contact after an edit-mode visibility check.
func (s *Service) Delete(ctx context.Context, actor authz.AuthContext, breadth authz.Breadth, id int64) error {
	contact, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.evaluators.New().CanAccess(ctx, actor, contact, breadth, true)
	if err != nil {
		return fmt.Errorf("contacts: evaluate %d: %w", id, err)
	}
	if !ok {
		return shared.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("contacts: delete %d: %w", id, err)
	}
	s.recordAudit(ctx, actor.UserID, id, "contacts.delete", nil)
	return nil
}

// ExportCSV streams every contact visible to the actor as CSV rows.
func (s *Service) ExportCSV(ctx context.Context, actor authz.AuthContext, breadth authz.Breadth, w io.Writer) error {
	var (
		contacts []Contact
		err      error
	)
	if breadth == authz.BreadthAll {
		contacts, err = s.repo.ListAll(ctx)
	} else {
		contacts, err = s.visibleSet(ctx, actor, breadth)
	}
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "name", "email", "phone", "owner_id", "assignee_id", "sharing_scope"}); err != nil {
		return err
	}
	for _, c := range contacts {
		assignee := ""
		if c.AssigneeID != nil {
			assignee = strconv.FormatInt(*c.AssigneeID, 10)
		}
		row := []string{
			strconv.FormatInt(c.ID, 10),
			c.Name,
			c.Email,
			c.Phone,
			strconv.FormatInt(c.OwnerID, 10),
			assignee,
			string(c.Scope),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.UserID, 0, "contacts.export", map[string]any{"rows": len(contacts)})
	return nil
}

func (s *Service) visibleSet(ctx context.Context, actor authz.AuthContext, breadth authz.Breadth) ([]Contact, error) {
	candidates, err := s.repo.ListCandidates(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("contacts: list candidates: %w", err)
	}
	visible, err := authz.FilterVisible(ctx, s.evaluators.New(), actor, breadth, candidates)
	if err != nil {
		return nil, fmt.Errorf("contacts: filter: %w", err)
	}
	return visible, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, contactID int64, action string, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "contact",
		EntityID: strconv.FormatInt(contactID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit contact change", slog.Any("error", err))
	}
}
