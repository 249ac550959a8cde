// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth

import (
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("vetclinic/auth")

// Service implements the authentication use cases.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenService
	logger *slog.Logger
	now    func() time.Time
	newID  func() ulid.ULID
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used to stamp new users.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides how new user IDs are generated.
func WithIDGenerator(newID func() ulid.ULID) ServiceOption {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a Service. All three ports are required.
func NewService(users UserRepository, hasher PasswordHasher, tokens TokenService, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token service is required")
	}

	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: slog.Default(),
		now:    time.Now,
		newID:  NewULID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger cannot be nil")
	}
	return s, nil
}

// endSpan records the outcome of a use case on its span and ends it.
func endSpan[T any](span trace.Span, res Result[T], err error) {
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case res.OK():
		span.SetAttributes(attribute.String("auth.result", "ok"))
	default:
		span.SetAttributes(attribute.String("auth.result", res.Code().String()))
	}
	span.End()
}
