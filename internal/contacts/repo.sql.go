package contacts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for contacts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contactColumns = `id, name, email, phone, owner_id, assignee_id, sharing_scope, created_at, updated_at`

// Get fetches a contact by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, shared.ErrNotFound
		}
		return Contact{}, err
	}
	return c, nil
}

// List returns one page ordered by name plus the total row count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Contact, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	contacts, err := collectContacts(rows)
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

// ListAll returns every contact ordered by name.
func (r *Repository) ListAll(ctx context.Context) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

// ListCandidates narrows the scan to rows the user owns, is assigned to, or
// that carry a team or organization scope.
func (r *Repository) ListCandidates(ctx context.Context, userID int64) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts
WHERE owner_id = $1 OR assignee_id = $1 OR sharing_scope IN ('team','organization')
ORDER BY name, id`, userID)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

// Insert stores a new contact.
func (r *Repository) Insert(ctx context.Context, c Contact) (Contact, error) {
	return scanContact(r.pool.QueryRow(ctx, `INSERT INTO contacts (name, email, phone, owner_id, assignee_id, sharing_scope, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW()) RETURNING `+contactColumns,
		c.Name, c.Email, c.Phone, c.OwnerID, c.AssigneeID, string(c.Scope)))
}

// Update rewrites the mutable fields.
func (r *Repository) Update(ctx context.Context, c Contact) (Contact, error) {
	updated, err := scanContact(r.pool.QueryRow(ctx, `UPDATE contacts
SET name=$2, email=$3, phone=$4, assignee_id=$5, sharing_scope=$6, updated_at=NOW()
WHERE id=$1 RETURNING `+contactColumns,
		c.ID, c.Name, c.Email, c.Phone, c.AssigneeID, string(c.Scope)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, shared.ErrNotFound
		}
		return Contact{}, err
	}
	return updated, nil
}

// Delete removes a contact.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func collectContacts(rows pgx.Rows) ([]Contact, error) {
	defer rows.Close()
	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	var scope string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.OwnerID, &c.AssigneeID, &scope, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Contact{}, err
	}
	c.Scope = authz.ParseSharingScope(scope)
	return c, nil
}

var _ RepositoryPort = (*Repository)(nil)
