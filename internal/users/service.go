package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Service provides user lookups and credential verification for the
// auth collaborator.
type Service struct {
	repo Repository
}

// NewService creates a new service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns users, optionally narrowed by role.
func (s *Service) List(ctx context.Context, role *shared.Role, activeOnly bool) ([]User, error) {
	return s.repo.List(ctx, role, activeOnly)
}

// VerifyCredentials checks an email/password pair against the stored
// bcrypt hash. Inactive accounts never verify.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrNotFound
	}
	return user, nil
}
