// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth/authtest"
)

type testEnv struct {
	svc    *auth.Service
	users  *authtest.MemoryUserRepository
	tokens *auth.JWTTokenService
	clock  *authtest.Clock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := authtest.NewClock(time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC))
	users := authtest.NewMemoryUserRepository()
	tokens, err := auth.NewJWTTokenService(testSecret, auth.WithTokenClock(clock.Now))
	require.NoError(t, err)
	svc, err := auth.NewService(users, auth.NewPBKDF2Hasher(), tokens, auth.WithClock(clock.Now))
	require.NoError(t, err)
	return &testEnv{svc: svc, users: users, tokens: tokens, clock: clock}
}

func TestScenario_RegisterLoginCurrentUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	reg, err := env.svc.RegisterUser(ctx, auth.RegisterInput{Email: "vet@x.com", Password: "Secreta123", Role: auth.RoleVet})
	require.NoError(t, err)
	require.True(t, reg.OK(), "register failed: %s", reg.Code())
	assert.Equal(t, "vet@x.com", reg.Value().Email)
	assert.Equal(t, auth.RoleVet, reg.Value().Role)
	assert.Equal(t, env.clock.Now(), reg.Value().CreatedAt)

	login, err := env.svc.LoginUser(ctx, auth.LoginInput{Email: "vet@x.com", Password: "Secreta123"})
	require.NoError(t, err)
	require.True(t, login.OK(), "login failed: %s", login.Code())
	assert.Equal(t, reg.Value().ID.String(), login.Value().UserID)

	verified := env.tokens.Verify(login.Value().Token)
	assert.Equal(t, auth.TokenVerification{Valid: true, UserID: login.Value().UserID}, verified)

	current, found, err := env.svc.GetCurrentUser(ctx, verified.UserID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, auth.RoleVet, current.Role)
	assert.Equal(t, "vet@x.com", current.Email)

	env.clock.Advance(auth.DefaultTokenTTL + time.Second)
	assert.False(t, env.tokens.Verify(login.Value().Token).Valid)
}

func TestScenario_RegistrationRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.svc.RegisterUser(ctx, auth.RegisterInput{Email: "not-an-email", Password: "Secreta123"})
	require.NoError(t, err)
	assert.Equal(t, auth.CodeEmailInvalid, res.Code())

	res, err = env.svc.RegisterUser(ctx, auth.RegisterInput{Email: "a@b.com", Password: "short1"})
	require.NoError(t, err)
	assert.Equal(t, auth.CodeWeakPassword, res.Code())

	res, err = env.svc.RegisterUser(ctx, auth.RegisterInput{Email: "a@b.com", Password: "Secreta123"})
	require.NoError(t, err)
	assert.True(t, res.OK())

	res, err = env.svc.RegisterUser(ctx, auth.RegisterInput{Email: "a@b.com", Password: "Another123"})
	require.NoError(t, err)
	assert.Equal(t, auth.CodeEmailInUse, res.Code())

	assert.Equal(t, 1, env.users.Len())
}

func TestScenario_LoginDoesNotEnumerate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.RegisterUser(ctx, auth.RegisterInput{Email: "desk@x.com", Password: "Secreta123"})
	require.NoError(t, err)

	wrongPassword, err := env.svc.LoginUser(ctx, auth.LoginInput{Email: "desk@x.com", Password: "Secreta124"})
	require.NoError(t, err)
	unknownEmail, err := env.svc.LoginUser(ctx, auth.LoginInput{Email: "nobody@x.com", Password: "Secreta123"})
	require.NoError(t, err)

	assert.Equal(t, auth.CodeInvalidCredentials, wrongPassword.Code())
	assert.Equal(t, wrongPassword, unknownEmail)
}

func TestScenario_ListUsersNewestFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, email := range []string{"first@x.com", "second@x.com", "third@x.com"} {
		res, err := env.svc.RegisterUser(ctx, auth.RegisterInput{Email: email, Password: "Secreta123"})
		require.NoError(t, err)
		require.True(t, res.OK())
		env.clock.Advance(time.Minute)
	}

	list, err := env.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third@x.com", list[0].Email)
	assert.Equal(t, "second@x.com", list[1].Email)
	assert.Equal(t, "first@x.com", list[2].Email)
}

func TestScenario_ConcurrentRegistrationSameEmail(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	env := newTestEnv(t)

	const attempts = 8
	results := make([]auth.Result[auth.PublicUser], attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.svc.RegisterUser(ctx, auth.RegisterInput{Email: "same@x.com", Password: "Secreta123"})
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	var ok, inUse int
	for _, res := range results {
		switch {
		case res.OK():
			ok++
		case res.Code() == auth.CodeEmailInUse:
			inUse++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, inUse)
	assert.Equal(t, 1, env.users.Len())
}
