// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

// Package mocks provides testify mocks for the auth ports.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
)

// MockUserRepository is a mock auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository whose expectations are
// asserted when the test ends.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// FindByEmail provides a mock function.
func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// FindByID provides a mock function.
func (m *MockUserRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// Create provides a mock function.
func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// ListPublic provides a mock function.
func (m *MockUserRepository) ListPublic(ctx context.Context) ([]auth.PublicUser, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]auth.PublicUser)
	return users, args.Error(1)
}

// MockPasswordHasher is a mock auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted when the test ends.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, record string) bool {
	args := m.Called(password, record)
	return args.Bool(0)
}

// MockTokenService is a mock auth.TokenService.
type MockTokenService struct {
	mock.Mock
}

// NewMockTokenService creates a MockTokenService whose expectations are
// asserted when the test ends.
func NewMockTokenService(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenService {
	m := &MockTokenService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Issue provides a mock function.
func (m *MockTokenService) Issue(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

// Verify provides a mock function.
func (m *MockTokenService) Verify(token string) auth.TokenVerification {
	args := m.Called(token)
	v, _ := args.Get(0).(auth.TokenVerification)
	return v
}

var (
	_ auth.UserRepository = (*MockUserRepository)(nil)
	_ auth.PasswordHasher = (*MockPasswordHasher)(nil)
	_ auth.TokenService   = (*MockTokenService)(nil)
)
