// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role is the staff role of a user account.
type Role string

// Known roles.
const (
	RoleAdmin     Role = "ADMIN"
	RoleVet       Role = "VET"
	RoleReception Role = "RECEPTION"
)

// DefaultRole is assigned when no role is given.
const DefaultRole = RoleReception

// MinPasswordLength is the shortest password RegisterUser accepts.
const MinPasswordLength = 8

// emailRegex is the basic local@domain.tld shape.
var emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVet, RoleReception:
		return true
	default:
		return false
	}
}

// ParseRole converts a string to a Role. An empty string yields DefaultRole.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return DefaultRole, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Errorf("role must be one of %s, %s, %s", RoleAdmin, RoleVet, RoleReception)
	}
	return r, nil
}

// ValidateEmail checks the email against the basic local@domain.tld pattern.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email has an invalid format")
	}
	return nil
}

// User is a staff account.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// NewUser creates a User with a validated email. An empty role defaults to
// DefaultRole.
func NewUser(id ulid.ULID, email, passwordHash string, role Role, createdAt time.Time) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if role == "" {
		role = DefaultRole
	}
	if !role.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").With("role", string(role)).Errorf("unknown role")
	}
	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    createdAt,
	}, nil
}

// PublicUser is the projection of a User that is safe to expose.
type PublicUser struct {
	ID        ulid.ULID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UserRepository manages user persistence.
// Implementations must enforce email uniqueness in the store.
type UserRepository interface {
	// FindByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID retrieves a user by ID.
	// Returns ErrNotFound if the ID does not resolve.
	FindByID(ctx context.Context, id ulid.ULID) (*User, error)

	// Create stores a new user.
	// Returns ErrEmailTaken if the store already holds the email.
	Create(ctx context.Context, user *User) error

	// ListPublic returns every user's public projection, newest first.
	ListPublic(ctx context.Context) ([]PublicUser, error)
}
