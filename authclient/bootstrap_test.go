package authclient_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-climb-client/authclient"
	"github.com/jrsteele09/go-climb-client/credentials"
	apperrors "github.com/jrsteele09/go-climb-client/internal/errors"
	"github.com/jrsteele09/go-climb-client/token"
)

func TestInitialize_NoStoredToken(t *testing.T) {
	f := setupTestFixture(t)

	res := f.service.Initialize(context.Background())

	require.Equal(t, authclient.StateUnauthenticated, res.State)
	require.False(t, res.Authenticated())
	require.Equal(t, int32(0), f.requests.Load(), "no network call attempted")
}

func TestInitialize_ValidStoredSession(t *testing.T) {
	f := setupTestFixture(t)
	f.store.SetAccessToken("opaque-access-token")
	f.store.SetUser(testProfile())
	f.store.SetProvider(credentials.ProviderEmail)

	res := f.service.Initialize(context.Background())

	require.Equal(t, authclient.StateAuthenticated, res.State)
	require.Equal(t, testUserID, res.User.ID)
	require.Equal(t, credentials.ProviderEmail, res.Provider)
	require.Equal(t, int32(0), f.requests.Load(), "no network call attempted")
}

func TestInitialize_ExpiredTokenRefreshes(t *testing.T) {
	f := setupTestFixture(t)
	expired := makeJWT(t, map[string]any{"sub": testUserID, "exp": time.Now().Add(-time.Hour).Unix()})
	f.store.SetAccessToken(expired)
	f.store.SetRefreshToken("refresh-1")
	f.store.SetUser(testProfile())
	f.store.SetProvider(credentials.ProviderKakao)
	f.handleRefresh("rotated-access-token", 0)

	res := f.service.Initialize(context.Background())

	require.Equal(t, authclient.StateAuthenticated, res.State)
	require.Equal(t, testUserID, res.User.ID)
	require.Equal(t, int32(1), f.refreshCalls.Load(), "refresh endpoint called once")
	require.Equal(t, "rotated-access-token", f.store.AccessToken())
}

func TestInitialize_ExpiredTokenRefreshRejected(t *testing.T) {
	f := setupTestFixture(t)
	expired := makeJWT(t, map[string]any{"sub": testUserID, "exp": time.Now().Add(-time.Hour).Unix()})
	f.store.SetAccessToken(expired)
	f.store.SetRefreshToken("refresh-1")
	f.store.SetUser(testProfile())
	f.handleRefresh("", 401)

	res := f.service.Initialize(context.Background())

	require.Equal(t, authclient.StateUnauthenticated, res.State)
	require.ErrorIs(t, res.Err, apperrors.ErrSessionExpired)
	require.False(t, f.store.HasValidSession(), "all stored auth data cleared")
	require.Empty(t, f.store.AccessToken())
	require.Empty(t, f.store.RefreshToken())
}

func TestInitialize_ExpiredTokenNoRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	expired := makeJWT(t, map[string]any{"sub": testUserID, "exp": time.Now().Add(-time.Hour).Unix()})
	f.store.SetAccessToken(expired)
	f.store.SetUser(testProfile())

	res := f.service.Initialize(context.Background())

	require.Equal(t, authclient.StateUnauthenticated, res.State)
	require.Equal(t, int32(0), f.refreshCalls.Load())
	require.Empty(t, f.store.AccessToken())
}

func TestInitialize_RefreshUnreachableIsFailure(t *testing.T) {
	f := setupTestFixture(t)
	expired := makeJWT(t, map[string]any{"sub": testUserID, "exp": time.Now().Add(-time.Hour).Unix()})
	f.store.SetAccessToken(expired)
	f.store.SetRefreshToken("refresh-1")
	f.store.SetUser(testProfile())
	f.server.Close()

	res := f.service.Initialize(context.Background())

	require.Equal(t, authclient.StateFailed, res.State)
	require.False(t, res.Authenticated(), "failure surfaces as unauthenticated to UIs")
	require.Error(t, res.Err)
}

func TestInitialize_CookieSession(t *testing.T) {
	jwt := makeJWT(t, map[string]any{
		"sub":      testUserID,
		"email":    testUserEmail,
		"nickname": testNickname,
		"picture":  "https://cdn.example.com/a.png",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	require.True(t, token.IsJWTShaped(jwt))

	// The cookie is pre-seeded, as if the server set it on a previous visit.
	f := setupTestFixture(t, withSeededCookie("accessToken", jwt))

	res := f.service.Initialize(context.Background())

	require.Equal(t, authclient.StateAuthenticated, res.State)
	require.Equal(t, testUserID, res.User.ID)
	require.Equal(t, testNickname, res.User.Nickname)
	require.Equal(t, "https://cdn.example.com/a.png", res.User.ImageURL)
	require.Equal(t, credentials.ProviderGoogle, res.Provider, "defaults to the configured provider tag")
	require.Equal(t, int32(0), f.requests.Load(), "no network call attempted")
	require.Empty(t, f.store.AccessToken(), "cookie sessions are not persisted to the store")
}

func TestInitialize_ExpiredCookieFallsThrough(t *testing.T) {
	expired := makeJWT(t, map[string]any{"sub": testUserID, "exp": time.Now().Add(-time.Hour).Unix()})
	f := setupTestFixture(t, withSeededCookie("accessToken", expired))

	res := f.service.Initialize(context.Background())

	require.Equal(t, authclient.StateUnauthenticated, res.State, "expired cookie token is ignored")
}
