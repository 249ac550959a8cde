// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ListUsers returns the public projection of every user, newest first.
// The repository's list is returned as is.
func (s *Service) ListUsers(ctx context.Context) ([]PublicUser, error) {
	ctx, span := tracer.Start(ctx, "auth.ListUsers")
	defer span.End()

	users, err := s.users.ListPublic(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, oops.Code("AUTH_LIST_USERS_FAILED").
			With("operation", "list public users").
			Wrap(err)
	}
	span.SetAttributes(attribute.Int("auth.user_count", len(users)))
	return users, nil
}

// GetCurrentUser resolves the user behind a session subject.
// It reports found == false when userID is empty, not a valid ID, or does not
// resolve. An empty or malformed ID never reaches the repository.
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (user *User, found bool, err error) {
	if userID == "" {
		return nil, false, nil
	}
	id, parseErr := ulid.Parse(userID)
	if parseErr != nil {
		return nil, false, nil
	}

	ctx, span := tracer.Start(ctx, "auth.GetCurrentUser")
	defer span.End()

	user, err = s.users.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("operation", "find user by id").
			With("user_id", userID).
			Wrap(err)
	}
	return user, true, nil
}
