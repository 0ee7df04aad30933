package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence. Role names carry a
// unique index on LOWER(name).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, is_active, is_admin, created_at, updated_at`

// ListRoles returns all roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole fetches a role by ID.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// GetRoleByName fetches a role by case-insensitive name.
func (r *Repository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE LOWER(name)=LOWER($1)`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new active, non-admin role.
func (r *Repository) CreateRole(ctx context.Context, name string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `INSERT INTO roles (name, is_active, is_admin, created_at, updated_at)
VALUES ($1, TRUE, FALSE, NOW(), NOW()) RETURNING `+roleColumns, name))
	if err != nil {
		if isUniqueViolation(err) {
			return Role{}, ErrNameTaken
		}
		return Role{}, err
	}
	return role, nil
}

// RenameRole updates the role name.
func (r *Repository) RenameRole(ctx context.Context, id int64, name string) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `UPDATE roles SET name=$2, updated_at=NOW() WHERE id=$1 RETURNING `+roleColumns, id, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		if isUniqueViolation(err) {
			return Role{}, ErrNameTaken
		}
		return Role{}, err
	}
	return role, nil
}

// SetRoleActive flips the active flag.
func (r *Repository) SetRoleActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AssignRole binds a user to a role; re-assigning is a no-op.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID, assignedBy int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_roles (user_id, role_id, assigned_by, created_at)
VALUES ($1,$2,$3,NOW()) ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID, assignedBy)
	return err
}

// RemoveRole unbinds a user from a role.
func (r *Repository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id=$1 AND role_id=$2`, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ActiveRolesOf returns the active roles currently assigned to the user.
func (r *Repository) ActiveRolesOf(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT r.id, r.name, r.is_active, r.is_admin, r.created_at, r.updated_at
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1 AND r.is_active
ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// UsersWithRole returns the IDs of users currently holding the role.
func (r *Repository) UsersWithRole(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM user_roles WHERE role_id=$1 ORDER BY user_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.IsActive, &role.IsAdmin, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ RepositoryPort = (*Repository)(nil)
