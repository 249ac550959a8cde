// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

// Package authtest provides test helpers for the auth package.
package authtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
)

// MemoryUserRepository is an auth.UserRepository backed by a map.
// Emails are unique case-insensitively, like the Postgres schema.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[ulid.ULID]auth.User
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[ulid.ULID]auth.User)}
}

// FindByEmail retrieves a user by email.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, auth.ErrNotFound
}

// FindByID retrieves a user by ID.
func (r *MemoryUserRepository) FindByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &u, nil
}

// Create stores a copy of user.
func (r *MemoryUserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return auth.ErrEmailTaken
		}
	}
	r.users[user.ID] = *user
	return nil
}

// ListPublic returns public projections ordered newest first.
func (r *MemoryUserRepository) ListPublic(_ context.Context) ([]auth.PublicUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]auth.PublicUser, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.Public())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Compare(out[j].ID) > 0
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ auth.UserRepository = (*MemoryUserRepository)(nil)
