// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

// Package postgres implements auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
)

// Querier is the subset of pgxpool.Pool used by the repositories.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_BY_EMAIL_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}
	return user, nil
}

// FindByID retrieves a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_BY_ID_FAILED").
			With("operation", "find user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// emailUniqueIndex is the unique index on LOWER(email).
const emailUniqueIndex = "users_email_lower_idx"

// Create stores a new user. A unique violation on the email index is
// reported as auth.ErrEmailTaken; any other violation is a create failure.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailUniqueIndex {
			return oops.Code("USER_EMAIL_TAKEN").
				With("id", user.ID.String()).
				With("constraint", pgErr.ConstraintName).
				Wrap(auth.ErrEmailTaken)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// ListPublic returns all users' public columns, newest first.
func (r *UserRepository) ListPublic(ctx context.Context) ([]auth.PublicUser, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, role, created_at
		FROM users
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	users := make([]auth.PublicUser, 0)
	for rows.Next() {
		var (
			idStr     string
			email     string
			role      string
			createdAt time.Time
		)
		if err := rows.Scan(&idStr, &email, &role, &createdAt); err != nil {
			return nil, oops.Code("USER_LIST_FAILED").With("operation", "scan user row").Wrap(err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("USER_LIST_FAILED").
				With("operation", "parse user id").
				With("id", idStr).
				Wrap(err)
		}
		users = append(users, auth.PublicUser{
			ID:        id,
			Email:     email,
			Role:      auth.Role(role),
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr string
		role  string
		user  auth.User
	)
	if err := row.Scan(&idStr, &user.Email, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").With("id", idStr).Wrap(err)
	}
	user.ID = id
	user.Role = auth.Role(role)
	return &user, nil
}

var _ auth.UserRepository = (*UserRepository)(nil)
