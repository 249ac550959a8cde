// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/store"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/pkg/errutil"
)

var userColumns = []string{"id", "email", "password_hash", "role", "created_at"}

func TestHashPassword(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		out, err := execute(t, nil, "", "hash-password", "s3cret-pass")
		require.NoError(t, err)

		record := strings.TrimSpace(out)
		parsed, err := auth.ParseHashRecord(record)
		require.NoError(t, err)
		assert.Equal(t, 100_000, parsed.Iterations)
		assert.True(t, auth.NewPBKDF2Hasher().Verify("s3cret-pass", record))
	})

	t.Run("from stdin", func(t *testing.T) {
		out, err := execute(t, nil, "piped-pass\n", "hash-password")
		require.NoError(t, err)
		assert.True(t, auth.NewPBKDF2Hasher().Verify("piped-pass", strings.TrimSpace(out)))
	})

	t.Run("stdin without newline", func(t *testing.T) {
		out, err := execute(t, nil, "no-newline", "hash-password")
		require.NoError(t, err)
		assert.True(t, auth.NewPBKDF2Hasher().Verify("no-newline", strings.TrimSpace(out)))
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := execute(t, nil, "\n", "hash-password")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "PASSWORD_REQUIRED")
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, err := execute(t, nil, "", "hash-password", "a", "b")
		require.Error(t, err)
	})
}

func createUserDeps(t *testing.T, db *mockDatabase) *Deps {
	t.Helper()
	useDefaultEnv(t)
	return &Deps{
		DatabaseFactory: func(context.Context, string, store.PoolConfig) (Database, error) {
			return db, nil
		},
	}
}

func TestCreateUser(t *testing.T) {
	db := newMockDatabase(t)
	db.ExpectQuery(`FROM users\s+WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("admin@clinic.com").
		WillReturnRows(pgxmock.NewRows(userColumns))
	db.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "admin@clinic.com", pgxmock.AnyArg(), "ADMIN", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	out, err := execute(t, createUserDeps(t, db), "",
		"create-user", "--email", " admin@clinic.com ", "--password", "longenough", "--role", "admin")
	require.NoError(t, err)

	var user auth.PublicUser
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "admin@clinic.com", user.Email)
	assert.Equal(t, auth.RoleAdmin, user.Role)
	assert.NotContains(t, out, "password")
	assert.True(t, db.closed.Load())
}

func TestCreateUser_PasswordFromStdin(t *testing.T) {
	db := newMockDatabase(t)
	db.ExpectQuery(`FROM users`).
		WithArgs("desk@clinic.com").
		WillReturnRows(pgxmock.NewRows(userColumns))
	db.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "desk@clinic.com", pgxmock.AnyArg(), "RECEPTION", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	out, err := execute(t, createUserDeps(t, db), "piped-password\n",
		"create-user", "--email", "desk@clinic.com", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, `"role": "RECEPTION"`)
}

func TestCreateUser_EmailInUse(t *testing.T) {
	db := newMockDatabase(t)
	db.ExpectQuery(`FROM users`).
		WithArgs("vet@clinic.com").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(auth.NewULID().String(), "vet@clinic.com", "rec", "VET", time.Now().UTC()))

	_, err := execute(t, createUserDeps(t, db), "",
		"create-user", "--email", "vet@clinic.com", "--password", "longenough")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "EMAIL_IN_USE")
}

func TestCreateUser_WeakPassword(t *testing.T) {
	db := newMockDatabase(t)
	db.ExpectQuery(`FROM users`).
		WithArgs("vet@clinic.com").
		WillReturnRows(pgxmock.NewRows(userColumns))

	_, err := execute(t, createUserDeps(t, db), "",
		"create-user", "--email", "vet@clinic.com", "--password", "short")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "WEAK_PASSWORD")
}

func TestCreateUser_RejectsBeforeConnecting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{
			name: "unknown role",
			args: []string{"--email", "x@clinic.com", "--password", "longenough", "--role", "OWNER"},
			code: "AUTH_INVALID_ROLE",
		},
		{
			name: "missing password",
			args: []string{"--email", "x@clinic.com"},
			code: "PASSWORD_REQUIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			useDefaultEnv(t)
			deps := &Deps{
				DatabaseFactory: func(context.Context, string, store.PoolConfig) (Database, error) {
					called = true
					return nil, errors.New("unexpected connect")
				},
			}
			_, err := execute(t, deps, "", append([]string{"create-user"}, tt.args...)...)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
			assert.False(t, called)
		})
	}
}

func TestCreateUser_RequiresEmail(t *testing.T) {
	_, err := execute(t, createUserDeps(t, nil), "", "create-user", "--password", "longenough")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestCreateUser_PasswordFlagsExclusive(t *testing.T) {
	_, err := execute(t, createUserDeps(t, nil), "",
		"create-user", "--email", "x@clinic.com", "--password", "longenough", "--password-stdin")
	require.Error(t, err)
}
