// ABOUTME: Tests for admin user and session store operations
// ABOUTME: Covers credential lookup by email, duplicate emails, and session expiry

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdmin(i int) *AdminUser {
	return &AdminUser{
		ID:           generateTestID("admin", i),
		Email:        generateTestID("admin", i) + "@school.edu",
		FullName:     "Test Admin",
		Role:         "admin",
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuvwxyz0123456789abcdefghijklmnopq",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestAdminStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := newTestAdmin(1)
	require.NoError(t, store.CreateAdminUser(ctx, user))

	got, err := store.GetAdminUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.FullName, got.FullName)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
}

func TestAdminStore_GetByEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := newTestAdmin(1)
	require.NoError(t, store.CreateAdminUser(ctx, user))

	got, err := store.GetAdminUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = store.GetAdminUserByEmail(ctx, "nobody@school.edu")
	assert.ErrorIs(t, err, ErrAdminNotFound)
}

func TestAdminStore_DuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := newTestAdmin(1)
	require.NoError(t, store.CreateAdminUser(ctx, user))

	dup := newTestAdmin(2)
	dup.Email = user.Email
	assert.ErrorIs(t, store.CreateAdminUser(ctx, dup), ErrEmailExists)
}

func TestAdminStore_UpdatePassword(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := newTestAdmin(1)
	require.NoError(t, store.CreateAdminUser(ctx, user))

	newHash := "$2a$12$zyxwvutsrqponmlkjihgfedcba9876543210zyxwvutsrqponmlkjih"
	require.NoError(t, store.UpdateAdminUserPassword(ctx, user.ID, newHash))

	got, err := store.GetAdminUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, newHash, got.PasswordHash)

	assert.ErrorIs(t, store.UpdateAdminUserPassword(ctx, "missing", newHash), ErrAdminNotFound)
}

func TestAdminStore_Count(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	count, err := store.CountAdminUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := range 3 {
		require.NoError(t, store.CreateAdminUser(ctx, newTestAdmin(i)))
	}

	count, err = store.CountAdminUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAdminStore_Sessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := newTestAdmin(1)
	require.NoError(t, store.CreateAdminUser(ctx, user))

	session := &AdminSession{
		ID:        "session-1",
		UserID:    user.ID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, store.CreateAdminSession(ctx, session))

	got, err := store.GetAdminSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	require.NoError(t, store.DeleteAdminSession(ctx, session.ID))
	_, err = store.GetAdminSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrAdminSessionNotFound)
}

func TestAdminStore_ExpiredSessionNotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := newTestAdmin(1)
	require.NoError(t, store.CreateAdminUser(ctx, user))

	session := &AdminSession{
		ID:        "session-expired",
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateAdminSession(ctx, session))

	_, err := store.GetAdminSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrAdminSessionNotFound)
}

func TestAdminStore_DeleteExpiredSessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := newTestAdmin(1)
	require.NoError(t, store.CreateAdminUser(ctx, user))

	live := &AdminSession{ID: "live", UserID: user.ID, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	dead := &AdminSession{ID: "dead", UserID: user.ID, CreatedAt: time.Now().Add(-2 * time.Hour), ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, store.CreateAdminSession(ctx, live))
	require.NoError(t, store.CreateAdminSession(ctx, dead))

	require.NoError(t, store.DeleteExpiredAdminSessions(ctx))

	_, err := store.GetAdminSession(ctx, "live")
	assert.NoError(t, err)
}
