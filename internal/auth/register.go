// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// RegisterInput is the input of RegisterUser. An empty Role defaults to
// DefaultRole.
type RegisterInput struct {
	Email    string
	Password string
	Role     Role
}

// RegisterUser creates a user account and returns its public projection.
//
// Checks run in order and stop at the first failure: EMAIL_IN_USE,
// EMAIL_INVALID, WEAK_PASSWORD. A uniqueness conflict reported by the store
// on create is also EMAIL_IN_USE.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (res Result[PublicUser], err error) {
	ctx, span := tracer.Start(ctx, "auth.RegisterUser")
	defer func() { endSpan(span, res, err) }()

	if in.Role != "" && !in.Role.Valid() {
		return res, oops.Code("AUTH_INVALID_ROLE").With("role", string(in.Role)).Errorf("unknown role")
	}

	_, lookupErr := s.users.FindByEmail(ctx, in.Email)
	switch {
	case lookupErr == nil:
		return Fail[PublicUser](CodeEmailInUse), nil
	case !errors.Is(lookupErr, ErrNotFound):
		return res, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find user by email").
			Wrap(lookupErr)
	}

	if ValidateEmail(in.Email) != nil {
		return Fail[PublicUser](CodeEmailInvalid), nil
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return Fail[PublicUser](CodeWeakPassword), nil
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return res, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	// PostgreSQL keeps microseconds; truncating here makes the returned
	// createdAt match what later reads return.
	createdAt := s.now().UTC().Truncate(time.Microsecond)
	user, err := NewUser(s.newID(), in.Email, passwordHash, in.Role, createdAt)
	if err != nil {
		return res, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "build user").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Lost the race with a concurrent registration.
			return Fail[PublicUser](CodeEmailInUse), nil
		}
		return res, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"role", string(user.Role))

	return Ok(user.Public()), nil
}
