package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser registers a new account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, email, name, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return User{}, errors.New("users: email and name required")
	}
	if len(password) < 8 {
		return User{}, errors.New("users: password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, email, name, string(hash))
}

// Deactivate disables an account; sessions keep failing closed because the
// auth middleware re-checks the flag on each request.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// Reactivate re-enables an account.
func (s *Service) Reactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}
