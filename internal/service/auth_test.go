package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usersvc/backend/internal/auth"
	"github.com/usersvc/backend/internal/config"
	"github.com/usersvc/backend/internal/model"
)

const testSecret = "test-secret"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		SecretKey:      testSecret,
		AccessTTL:      "15m",
		RefreshTTLDays: "7",
	}
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc, err := NewAuthService(store, testAuthConfig())
	require.NoError(t, err)
	return svc, store
}

func seedUser(t *testing.T, store *fakeStore, username, password string, isAdmin bool) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user, err := store.CreateUser(context.Background(), username, hash, isAdmin)
	require.NoError(t, err)
	return user
}

func TestNewAuthServiceMisconfigured(t *testing.T) {
	store := newFakeStore()

	cfg := testAuthConfig()
	cfg.SecretKey = ""
	_, err := NewAuthService(store, cfg)
	assert.ErrorIs(t, err, ErrMisconfigured)

	cfg = testAuthConfig()
	cfg.AccessTTL = "soon"
	_, err = NewAuthService(store, cfg)
	assert.ErrorIs(t, err, ErrMisconfigured)

	cfg = testAuthConfig()
	cfg.RefreshTTLDays = "0"
	_, err = NewAuthService(store, cfg)
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestLoginSuccess(t *testing.T) {
	svc, store := newTestAuthService(t)
	user := seedUser(t, store, "dude", "test", false)

	accessToken, refreshToken, err := svc.Login(context.Background(), "dude", "test")
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.Equal(t, 1, store.tokenCount())

	codec := auth.NewTokenCodec(testSecret)
	claims, err := codec.Decode(accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "dude", claims.Username)
	assert.False(t, claims.IsAdmin)

	// The refresh token is persisted verbatim.
	row, err := store.GetRefreshToken(context.Background(), refreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, row.UserID)
}

func TestLoginFailuresCollapse(t *testing.T) {
	svc, store := newTestAuthService(t)
	seedUser(t, store, "dude", "test", false)

	// Unknown username and wrong password must be indistinguishable.
	_, _, err := svc.Login(context.Background(), "nobody", "test")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Login(context.Background(), "dude", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, 0, store.tokenCount())
}

func TestRefresh(t *testing.T) {
	svc, store := newTestAuthService(t)
	seedUser(t, store, "dude", "test", false)

	_, refreshToken, err := svc.Login(context.Background(), "dude", "test")
	require.NoError(t, err)

	accessToken, err := svc.Refresh(context.Background(), refreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)

	// No rotation: the same refresh token stays usable.
	assert.Equal(t, 1, store.tokenCount())
	_, err = svc.Refresh(context.Background(), refreshToken)
	assert.NoError(t, err)
}

func TestRefreshMissingToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Refresh(context.Background(), "not-in-store")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshExpiredToken(t *testing.T) {
	svc, store := newTestAuthService(t)
	user := seedUser(t, store, "dude", "test", false)

	expired, err := auth.NewTokenCodec(testSecret).Encode(user, -time.Minute)
	require.NoError(t, err)
	_, err = store.InsertRefreshToken(context.Background(), user.ID, expired)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), expired)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshAfterAccountDeleted(t *testing.T) {
	svc, store := newTestAuthService(t)
	user := seedUser(t, store, "dude", "test", false)

	_, refreshToken, err := svc.Login(context.Background(), "dude", "test")
	require.NoError(t, err)

	_, err = store.DeleteUser(context.Background(), user.ID)
	require.NoError(t, err)

	// The cascade removed the row, so the token no longer matches.
	_, err = svc.Refresh(context.Background(), refreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, store.tokenCount())
}

func TestLogout(t *testing.T) {
	svc, store := newTestAuthService(t)
	seedUser(t, store, "dude", "test", false)

	_, refreshToken, err := svc.Login(context.Background(), "dude", "test")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), refreshToken))
	assert.Equal(t, 0, store.tokenCount())

	// A second logout with the same token finds nothing to revoke.
	err = svc.Logout(context.Background(), refreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutMissingToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	err := svc.Logout(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestLogoutRevokesOnlyMatchedToken(t *testing.T) {
	svc, store := newTestAuthService(t)
	seedUser(t, store, "dude", "test", false)

	_, first, err := svc.Login(context.Background(), "dude", "test")
	require.NoError(t, err)
	_, second, err := svc.Login(context.Background(), "dude", "test")
	require.NoError(t, err)
	require.Equal(t, 2, store.tokenCount())

	require.NoError(t, svc.Logout(context.Background(), first))
	assert.Equal(t, 1, store.tokenCount())

	// The other session is untouched.
	_, err = svc.Refresh(context.Background(), second)
	assert.NoError(t, err)
}

func TestResolveIdentity(t *testing.T) {
	svc, store := newTestAuthService(t)
	user := seedUser(t, store, "dude", "test", false)

	accessToken, _, err := svc.Login(context.Background(), "dude", "test")
	require.NoError(t, err)

	identity, err := svc.ResolveIdentity(context.Background(), accessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, "dude", identity.Username)
	assert.False(t, identity.IsAdmin)
}

func TestResolveIdentityInvalidToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.ResolveIdentity(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveIdentityDeletedAccount(t *testing.T) {
	svc, store := newTestAuthService(t)
	user := seedUser(t, store, "dude", "test", false)

	accessToken, _, err := svc.Login(context.Background(), "dude", "test")
	require.NoError(t, err)

	_, err = store.DeleteUser(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = svc.ResolveIdentity(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveIdentityReflectsRevokedAdmin(t *testing.T) {
	svc, store := newTestAuthService(t)
	user := seedUser(t, store, "boss", "test", true)

	accessToken, _, err := svc.Login(context.Background(), "boss", "test")
	require.NoError(t, err)

	// Token claims say admin, but the identity comes from the fresh row.
	demoted := false
	_, err = store.UpdateUser(context.Background(), user.ID, model.UserUpdate{IsAdmin: &demoted})
	require.NoError(t, err)

	identity, err := svc.ResolveIdentity(context.Background(), accessToken)
	require.NoError(t, err)
	assert.False(t, identity.IsAdmin)
}

func TestEnsureAdmin(t *testing.T) {
	svc, store := newTestAuthService(t)

	user, err := svc.EnsureAdmin(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	// Idempotent: a second run returns the existing account.
	again, err := svc.EnsureAdmin(context.Background(), "admin", "other")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	stored, err := store.GetUserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("secret", stored.PasswordHash))
}

func TestEnsureAdminMissingInput(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.EnsureAdmin(context.Background(), "", "secret")
	assert.ErrorIs(t, err, ErrBadRequest)
	_, err = svc.EnsureAdmin(context.Background(), "admin", " ")
	assert.ErrorIs(t, err, ErrBadRequest)
}
