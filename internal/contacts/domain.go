package contacts

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// Contact is a CRM contact. Ownership is fixed at creation; the assignee and
// sharing scope can change over the record's life.
type Contact struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Email      string             `json:"email,omitempty"`
	Phone      string             `json:"phone,omitempty"`
	OwnerID    int64              `json:"owner_id"`
	AssigneeID *int64             `json:"assignee_id,omitempty"`
	Scope      authz.SharingScope `json:"sharing_scope"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// RecordOwner implements authz.Record.
func (c Contact) RecordOwner() int64 { return c.OwnerID }

// RecordAssignee implements authz.Record.
func (c Contact) RecordAssignee() (int64, bool) {
	if c.AssigneeID == nil {
		return 0, false
	}
	return *c.AssigneeID, true
}

// RecordScope implements authz.Record.
func (c Contact) RecordScope() authz.SharingScope { return c.Scope }

var _ authz.Record = Contact{}

// ContactInput carries the mutable fields for create and update.
type ContactInput struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	AssigneeID *int64 `json:"assignee_id" validate:"omitempty,gt=0"`
	Scope      string `json:"sharing_scope" validate:"omitempty,oneof=private team organization"`
}
