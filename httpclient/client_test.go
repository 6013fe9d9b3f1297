package httpclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-climb-client/credentials/storefakes"
	"github.com/jrsteele09/go-climb-client/httpclient"
	apperrors "github.com/jrsteele09/go-climb-client/internal/errors"
)

const (
	staleToken = "stale-token"
	freshToken = "fresh-token"
)

// testFixture holds the client under test and the mocked backend's
// counters.
type testFixture struct {
	client *httpclient.Client
	store  *storefakes.FakeStore
	server *httptest.Server

	refreshCalls atomic.Int32
	pathCalls    sync.Map // path -> *atomic.Int32

	refreshDelay  time.Duration
	refreshStatus int // 0 means 200

	invalidatedCalls atomic.Int32
}

func (f *testFixture) calls(path string) int32 {
	v, ok := f.pathCalls.Load(path)
	if !ok {
		return 0
	}
	return v.(*atomic.Int32).Load()
}

func (f *testFixture) countCall(path string) {
	v, _ := f.pathCalls.LoadOrStore(path, &atomic.Int32{})
	v.(*atomic.Int32).Add(1)
}

// setupTestFixture builds a backend whose protected endpoints demand
// freshToken and whose refresh endpoint issues it.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{store: storefakes.NewFakeStore()}

	mux := http.NewServeMux()
	mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		if f.refreshStatus != 0 {
			w.WriteHeader(f.refreshStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": freshToken})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.countCall(r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer "+freshToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	client, err := httpclient.New(
		f.server.URL,
		f.store,
		httpclient.WithOnSessionInvalidated(func() { f.invalidatedCalls.Add(1) }),
	)
	require.NoError(t, err)
	f.client = client
	return f
}

func TestRefreshCoordination_SingleRefreshUnderContention(t *testing.T) {
	f := setupTestFixture(t)
	f.refreshDelay = 50 * time.Millisecond
	f.store.SetAccessToken(staleToken)
	f.store.SetRefreshToken("refresh-1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, path := range []string{"/a", "/b"} {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			errs[i] = f.client.Get(context.Background(), path, nil)
		}(i, path)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, int32(1), f.refreshCalls.Load(), "exactly one refresh call")
	require.Equal(t, int32(2), f.calls("/a"), "/a retried exactly once")
	require.Equal(t, int32(2), f.calls("/b"), "/b retried exactly once")
	require.Equal(t, freshToken, f.store.AccessToken())
}

func TestNoInfiniteRetry(t *testing.T) {
	f := setupTestFixture(t)
	f.store.SetAccessToken(staleToken)
	f.store.SetRefreshToken("refresh-1")

	// The backend keeps rejecting this path even after a refresh.
	mux := f.server.Config.Handler.(*http.ServeMux)
	mux.HandleFunc("/always-denied", func(w http.ResponseWriter, r *http.Request) {
		f.countCall("/always-denied")
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := f.client.Get(context.Background(), "/always-denied", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Equal(t, int32(2), f.calls("/always-denied"), "second 401 propagates, no third attempt")
	require.Equal(t, int32(1), f.refreshCalls.Load())
}

func TestRefreshFailure_AllWaitersObserveSameOutcome(t *testing.T) {
	f := setupTestFixture(t)
	f.refreshDelay = 50 * time.Millisecond
	f.refreshStatus = http.StatusUnauthorized
	f.store.SetAccessToken(staleToken)
	f.store.SetRefreshToken("refresh-1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, path := range []string{"/a", "/b"} {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			errs[i] = f.client.Get(context.Background(), path, nil)
		}(i, path)
	}
	wg.Wait()

	require.ErrorIs(t, errs[0], apperrors.ErrRefreshFailed)
	require.ErrorIs(t, errs[1], apperrors.ErrRefreshFailed)
	require.Equal(t, int32(1), f.refreshCalls.Load())

	// The session is fully torn down and the host notified.
	require.Empty(t, f.store.AccessToken())
	require.Empty(t, f.store.RefreshToken())
	require.False(t, f.store.HasValidSession())
	require.Equal(t, int32(1), f.invalidatedCalls.Load())
}

func TestMissingRefreshTokenIsFatal(t *testing.T) {
	f := setupTestFixture(t)
	f.store.SetAccessToken(staleToken)
	// No refresh token stored and none in the cookie jar.

	err := f.client.Get(context.Background(), "/a", nil)
	require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	require.Equal(t, int32(0), f.refreshCalls.Load(), "refresh endpoint never called")
	require.Equal(t, int32(1), f.invalidatedCalls.Load())
	require.Empty(t, f.store.AccessToken())
}

func TestBearerAttachedFromStore(t *testing.T) {
	f := setupTestFixture(t)
	f.store.SetAccessToken(freshToken)

	var out map[string]string
	require.NoError(t, f.client.Get(context.Background(), "/a", &out))
	require.Equal(t, "true", out["ok"])
	require.Equal(t, int32(1), f.calls("/a"))
	require.Equal(t, int32(0), f.refreshCalls.Load())
}

func TestCookieTokenPreferredOverStore(t *testing.T) {
	f := setupTestFixture(t)
	f.store.SetAccessToken(staleToken)

	// Simulate a server-set access-token cookie.
	mux := f.server.Config.Handler.(*http.ServeMux)
	mux.HandleFunc("/session/open", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: httpclient.AccessTokenCookie, Value: freshToken, Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	_, err := f.client.Do(context.Background(), http.MethodPost, "/session/open", nil, nil)
	require.NoError(t, err)

	require.Equal(t, freshToken, f.client.AccessToken(), "cookie-sourced token wins")
	require.NoError(t, f.client.Get(context.Background(), "/a", nil))
	require.Equal(t, int32(0), f.refreshCalls.Load())
}

func TestClearSessionRemovesCookies(t *testing.T) {
	f := setupTestFixture(t)
	f.store.SetAccessToken(staleToken)
	f.store.SetRefreshToken("refresh-1")

	mux := f.server.Config.Handler.(*http.ServeMux)
	mux.HandleFunc("/session/open", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: httpclient.AccessTokenCookie, Value: freshToken, Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	_, err := f.client.Do(context.Background(), http.MethodPost, "/session/open", nil, nil)
	require.NoError(t, err)
	require.Equal(t, freshToken, f.client.CookieAccessToken())

	f.client.ClearSession()

	require.Empty(t, f.client.CookieAccessToken())
	require.Empty(t, f.store.AccessToken())
	require.Empty(t, f.store.RefreshToken())
	require.Equal(t, int32(0), f.invalidatedCalls.Load(), "explicit logout does not notify")
}

func TestNetworkFailureTagged(t *testing.T) {
	f := setupTestFixture(t)
	f.server.Close()

	err := f.client.Get(context.Background(), "/a", nil)
	require.ErrorIs(t, err, apperrors.ErrNetworkUnavailable)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	f := setupTestFixture(t)
	mux := f.server.Config.Handler.(*http.ServeMux)
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "gym not found"})
	})
	f.store.SetAccessToken(freshToken)

	err := f.client.Get(context.Background(), "/missing", nil)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	var apiErr *httpclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "gym not found", apiErr.Message)
}
