// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified when no user matches the email so that both
// failure paths do the same amount of work. It is well-formed but matches no
// password.
//
//nolint:gosec // G101: intentionally fake record, not a credential.
const dummyPasswordHash = "100000:sha256:00000000000000000000000000000000:" +
	"0000000000000000000000000000000000000000000000000000000000000000"

// LoginInput is the input of LoginUser.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput is the successful outcome of LoginUser.
type LoginOutput struct {
	UserID string
	Token  string
}

// LoginUser checks credentials and issues a session token.
// An unknown email and a wrong password both yield INVALID_CREDENTIALS.
func (s *Service) LoginUser(ctx context.Context, in LoginInput) (res Result[LoginOutput], err error) {
	ctx, span := tracer.Start(ctx, "auth.LoginUser")
	defer func() { endSpan(span, res, err) }()

	user, lookupErr := s.users.FindByEmail(ctx, in.Email)

	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
	case !errors.Is(lookupErr, ErrNotFound):
		return res, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user by email").
			Wrap(lookupErr)
	}

	// Always verify so response time does not reveal whether the email exists.
	valid := s.hasher.Verify(in.Password, targetHash)
	if user == nil || !valid {
		s.logger.DebugContext(ctx, "login rejected")
		return Fail[LoginOutput](CodeInvalidCredentials), nil
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return res, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID.String())

	return Ok(LoginOutput{UserID: user.ID.String(), Token: token}), nil
}
