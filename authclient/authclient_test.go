package authclient_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-climb-client/authclient"
	"github.com/jrsteele09/go-climb-client/credentials"
	"github.com/jrsteele09/go-climb-client/credentials/storefakes"
	"github.com/jrsteele09/go-climb-client/httpclient"
	"github.com/jrsteele09/go-climb-client/internal/config"
	"github.com/jrsteele09/go-climb-client/providers"
	"github.com/jrsteele09/go-climb-client/users"
)

const (
	testUserID    = "user-1"
	testUserEmail = "john.doe@example.com"
	testNickname  = "johnny"
)

// testFixture holds all test dependencies around a mocked backend.
type testFixture struct {
	server   *httptest.Server
	mux      *http.ServeMux
	store    *storefakes.FakeStore
	client   *httpclient.Client
	service  *authclient.Service
	config   config.EnvVars
	registry *providers.Registry

	requests     atomic.Int32
	refreshCalls atomic.Int32

	events recordedEvents
}

type recordedEvents struct {
	started       atomic.Int32
	finished      atomic.Int32
	authenticated atomic.Int32
	loginRequired atomic.Int32
	lastCleanURL  atomic.Value // *url.URL
}

type fixtureOption func(*fixtureSetup)

type fixtureSetup struct {
	seedCookies []*http.Cookie
}

func withSeededCookie(name, value string) fixtureOption {
	return func(fs *fixtureSetup) {
		fs.seedCookies = append(fs.seedCookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
}

// setupTestFixture creates a fresh service wired to a mocked backend. The
// backend's auth behavior is installed per test via f.mux.
func setupTestFixture(t *testing.T, options ...fixtureOption) *testFixture {
	t.Helper()

	setup := &fixtureSetup{}
	for _, opt := range options {
		opt(setup)
	}

	f := &testFixture{
		store: storefakes.NewFakeStore(),
		mux:   http.NewServeMux(),
	}

	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.mux.ServeHTTP(w, r)
	})
	f.server = httptest.NewServer(counting)
	t.Cleanup(f.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	if len(setup.seedCookies) > 0 {
		base, err := url.Parse(f.server.URL)
		require.NoError(t, err)
		jar.SetCookies(base, setup.seedCookies)
	}

	f.client, err = httpclient.New(f.server.URL, f.store,
		httpclient.WithHTTPClient(&http.Client{Jar: jar}))
	require.NoError(t, err)

	f.config = config.EnvVars{
		AppName:         "Go Climb Client",
		APIBaseURL:      f.server.URL,
		DefaultProvider: "google",
	}
	f.registry = providers.NewRegistry(f.config)

	callbacks := authclient.Callbacks{
		OnExchangeStarted:  func(credentials.Provider) { f.events.started.Add(1) },
		OnExchangeFinished: func(credentials.Provider) { f.events.finished.Add(1) },
		OnAuthenticated: func(_ credentials.Provider, _ *users.Profile, cleanURL *url.URL) {
			f.events.authenticated.Add(1)
			f.events.lastCleanURL.Store(cleanURL)
		},
		OnLoginRequired: func(_ credentials.Provider, _ error, cleanURL *url.URL) {
			f.events.loginRequired.Add(1)
			f.events.lastCleanURL.Store(cleanURL)
		},
	}

	f.service, err = authclient.NewService(f.client, f.registry, f.config,
		authclient.WithCallbacks(callbacks))
	require.NoError(t, err)
	return f
}

// handleRefresh installs a refresh endpoint issuing newToken.
func (f *testFixture) handleRefresh(newToken string, status int) {
	f.mux.HandleFunc("/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": newToken})
	})
}

func testProfile() *users.Profile {
	return &users.Profile{ID: testUserID, Email: testUserEmail, Nickname: testNickname}
}

// makeJWT builds an unsigned-but-JWT-shaped token from claims.
func makeJWT(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]any{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("sig"))
}
