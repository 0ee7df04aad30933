package users

import (
	"context"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, name, passwordHash string) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}
