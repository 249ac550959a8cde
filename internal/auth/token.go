// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the lifetime of a session token unless configured otherwise.
const DefaultTokenTTL = 15 * time.Minute

// TokenVerification is the outcome of verifying a session token.
// UserID is empty unless Valid is true.
type TokenVerification struct {
	Valid  bool
	UserID string
}

// TokenService issues and verifies signed session tokens.
type TokenService interface {
	// Issue signs a token whose subject is userID.
	Issue(userID string) (string, error)

	// Verify checks signature and expiry. Any failure yields Valid == false.
	Verify(token string) TokenVerification
}

// JWTTokenService implements TokenService with HS256-signed JWTs.
type JWTTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption configures a JWTTokenService.
type TokenOption func(*JWTTokenService)

// WithTokenTTL sets the token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(s *JWTTokenService) {
		s.ttl = ttl
	}
}

// WithTokenIssuer sets the iss claim. Tokens with a different issuer fail verification.
func WithTokenIssuer(issuer string) TokenOption {
	return func(s *JWTTokenService) {
		s.issuer = issuer
	}
}

// WithTokenClock overrides the time source used for issuing and verifying.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *JWTTokenService) {
		s.now = now
	}
}

// NewJWTTokenService creates a token service signing with secret.
func NewJWTTokenService(secret []byte, opts ...TokenOption) (*JWTTokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_SECRET_REQUIRED").Errorf("token secret cannot be empty")
	}
	s := &JWTTokenService{
		secret: secret,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		return nil, oops.Code("TOKEN_TTL_INVALID").With("ttl", s.ttl.String()).Errorf("token lifetime must be positive")
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *JWTTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for userID that expires after the configured lifetime.
func (s *JWTTokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", oops.Code("TOKEN_SUBJECT_REQUIRED").Errorf("token subject cannot be empty")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates token.
func (s *JWTTokenService) Verify(token string) TokenVerification {
	if token == "" {
		return TokenVerification{}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return TokenVerification{}
	}
	return TokenVerification{Valid: true, UserID: claims.Subject}
}
