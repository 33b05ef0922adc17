package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

type mockRepository struct {
	users map[int64]*User
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(_ context.Context, role *shared.Role, activeOnly bool) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if role != nil && u.Role != *role {
			continue
		}
		if activeOnly && !u.Active {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockRepository{users: map[int64]*User{
		1: {ID: 1, Name: "Asha", Email: "asha@example.com", Role: shared.RoleSales, Active: true, PasswordHash: string(hash)},
		2: {ID: 2, Name: "Old", Email: "old@example.com", Role: shared.RoleSales, Active: false, PasswordHash: string(hash)},
	}}
	return NewService(repo)
}

func TestVerifyCredentials(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.VerifyCredentials(context.Background(), "asha@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
}

func TestVerifyCredentialsRejectsWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.VerifyCredentials(context.Background(), "asha@example.com", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyCredentialsRejectsInactive(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.VerifyCredentials(context.Background(), "old@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersInactive(t *testing.T) {
	svc := newTestService(t)

	users, err := svc.List(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	users, err = svc.List(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
