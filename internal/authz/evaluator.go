package authz

import (
	"context"
	"fmt"
)

// RoleDirectory resolves a user's currently active role IDs. The roles
// service implements it; tests use in-memory maps.
type RoleDirectory interface {
	RolesOf(ctx context.Context, userID int64) ([]int64, error)
}

// Evaluator answers record-level visibility once the resolver has produced a
// breadth narrower than All.
type Evaluator struct {
	directory RoleDirectory
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(directory RoleDirectory) *Evaluator {
	return &Evaluator{directory: directory}
}

// CanAccess decides whether the actor may see (forEdit=false) or mutate
// (forEdit=true) one specific record under the given breadth. Rules apply in
// order, first match wins:
//
//  1. the owner always accesses their own record, any scope, any breadth
//  2. breadth Assigned grants the record's assignee
//  3. view only: organization scope grants any authenticated user
//  4. view only: team scope grants actors sharing at least one active role
//     with the owner
//
// The scope overrides in 3 and 4 never apply to edits; mutating a shared
// record requires owner identity or an explicit edit_all/edit_assigned
// breadth from the resolver.
func (e *Evaluator) CanAccess(ctx context.Context, actor AuthContext, rec Record, breadth Breadth, forEdit bool) (bool, error) {
	if actor.IsAdmin || breadth == BreadthAll {
		return true, nil
	}
	if breadth == BreadthNone {
		return false, nil
	}

	owner := rec.RecordOwner()
	if owner == actor.UserID {
		return true, nil
	}
	if breadth == BreadthAssigned {
		if assignee, ok := rec.RecordAssignee(); ok && assignee == actor.UserID {
			return true, nil
		}
	}
	if forEdit {
		return false, nil
	}

	switch rec.RecordScope() {
	case ScopeOrganization:
		return true, nil
	case ScopeTeam:
		return e.sharesRole(ctx, actor, owner)
	default:
		return false, nil
	}
}

// FilterVisible returns the subset of records the actor may view under the
// given breadth, preserving order. Intended for list pages; pair it with a
// CachedRoleDirectory so owner role lookups hit the store once per owner.
func FilterVisible[T Record](ctx context.Context, e *Evaluator, actor AuthContext, breadth Breadth, records []T) ([]T, error) {
	if actor.IsAdmin || breadth == BreadthAll {
		return records, nil
	}
	visible := make([]T, 0, len(records))
	for _, rec := range records {
		ok, err := e.CanAccess(ctx, actor, rec, breadth, false)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, rec)
		}
	}
	return visible, nil
}

func (e *Evaluator) sharesRole(ctx context.Context, actor AuthContext, ownerID int64) (bool, error) {
	if len(actor.RoleIDs) == 0 {
		return false, nil
	}
	ownerRoles, err := e.directory.RolesOf(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("authz: owner roles for user %d: %w", ownerID, err)
	}
	for _, id := range ownerRoles {
		if actor.HasRole(id) {
			return true, nil
		}
	}
	return false, nil
}
