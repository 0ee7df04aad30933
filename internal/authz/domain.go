// Package authz implements page-level permission resolution and record-level
// visibility for every business module. Decisions are pure functions over
// already-fetched rows; the package never reads session or global state.
package authz

import "strings"

// ActionFamily groups the grant flags a page check applies to.
type ActionFamily string

const (
	ActionCreate ActionFamily = "create"
	ActionView   ActionFamily = "view"
	ActionEdit   ActionFamily = "edit"
	ActionDelete ActionFamily = "delete"
	ActionExport ActionFamily = "export"
)

// Breadth is the scope of a granted action, ordered from narrowest to widest.
type Breadth int

const (
	BreadthNone Breadth = iota
	BreadthOwn
	BreadthAssigned
	BreadthAll
)

// Allowed reports whether the breadth permits the action at all.
func (b Breadth) Allowed() bool {
	return b > BreadthNone
}

func (b Breadth) String() string {
	switch b {
	case BreadthOwn:
		return "own"
	case BreadthAssigned:
		return "assigned"
	case BreadthAll:
		return "all"
	default:
		return "none"
	}
}

// widest returns the wider of two breadths.
func widest(a, b Breadth) Breadth {
	if b > a {
		return b
	}
	return a
}

// GrantVector holds the eleven independent grant flags one role carries on
// one page.
type GrantVector struct {
	Create         bool `json:"create"`
	ViewAll        bool `json:"view_all"`
	ViewAssigned   bool `json:"view_assigned"`
	ViewOwn        bool `json:"view_own"`
	EditAll        bool `json:"edit_all"`
	EditAssigned   bool `json:"edit_assigned"`
	EditOwn        bool `json:"edit_own"`
	DeleteAll      bool `json:"delete_all"`
	DeleteAssigned bool `json:"delete_assigned"`
	DeleteOwn      bool `json:"delete_own"`
	Export         bool `json:"export"`
}

// Union merges two vectors flag by flag. Effective rights across multiple
// roles are additive, never an intersection.
func (g GrantVector) Union(o GrantVector) GrantVector {
	return GrantVector{
		Create:         g.Create || o.Create,
		ViewAll:        g.ViewAll || o.ViewAll,
		ViewAssigned:   g.ViewAssigned || o.ViewAssigned,
		ViewOwn:        g.ViewOwn || o.ViewOwn,
		EditAll:        g.EditAll || o.EditAll,
		EditAssigned:   g.EditAssigned || o.EditAssigned,
		EditOwn:        g.EditOwn || o.EditOwn,
		DeleteAll:      g.DeleteAll || o.DeleteAll,
		DeleteAssigned: g.DeleteAssigned || o.DeleteAssigned,
		DeleteOwn:      g.DeleteOwn || o.DeleteOwn,
		Export:         g.Export || o.Export,
	}
}

// IsZero reports whether no flag is set.
func (g GrantVector) IsZero() bool {
	return g == GrantVector{}
}

// BreadthFor returns the widest breadth the vector grants for a family.
// Create and export have no row-level scope; they map to All when granted.
func (g GrantVector) BreadthFor(family ActionFamily) Breadth {
	switch family {
	case ActionCreate:
		if g.Create {
			return BreadthAll
		}
	case ActionExport:
		if g.Export {
			return BreadthAll
		}
	case ActionView:
		return scopeBreadth(g.ViewAll, g.ViewAssigned, g.ViewOwn)
	case ActionEdit:
		return scopeBreadth(g.EditAll, g.EditAssigned, g.EditOwn)
	case ActionDelete:
		return scopeBreadth(g.DeleteAll, g.DeleteAssigned, g.DeleteOwn)
	}
	return BreadthNone
}

func scopeBreadth(all, assigned, own bool) Breadth {
	switch {
	case all:
		return BreadthAll
	case assigned:
		return BreadthAssigned
	case own:
		return BreadthOwn
	default:
		return BreadthNone
	}
}

// SharingScope is the per-record visibility declaration.
type SharingScope string

const (
	ScopePrivate      SharingScope = "private"
	ScopeTeam         SharingScope = "team"
	ScopeOrganization SharingScope = "organization"
)

// ParseSharingScope maps stored values onto the known scopes. Unknown values
// fall back to the most restrictive scope, never to organization.
func ParseSharingScope(raw string) SharingScope {
	switch SharingScope(strings.ToLower(strings.TrimSpace(raw))) {
	case ScopeTeam:
		return ScopeTeam
	case ScopeOrganization:
		return ScopeOrganization
	default:
		return ScopePrivate
	}
}

// AuthContext identifies the acting user and the active roles they hold.
// It is built once per request by the session middleware and passed by value
// into every engine call.
type AuthContext struct {
	UserID  int64
	RoleIDs []int64
	IsAdmin bool
}

// HasRole reports membership by typed role identifier.
func (a AuthContext) HasRole(roleID int64) bool {
	for _, id := range a.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Record is the shape every module's record type exposes to the evaluator.
type Record interface {
	// RecordOwner returns the user ID of the creator.
	RecordOwner() int64
	// RecordAssignee returns the delegated user, if any.
	RecordAssignee() (int64, bool)
	// RecordScope returns the record's sharing scope.
	RecordScope() SharingScope
}
