package authclient

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-climb-client/credentials"
	"github.com/jrsteele09/go-climb-client/users"
)

// Callbacks carries the UI-facing notifications for the OAuth redirect
// flow. Every field is optional; the orchestrator never navigates or
// renders, it only reports. The clean URL passed to OnAuthenticated and
// OnLoginRequired has the authorization code stripped and should replace
// the visible location without navigation.
type Callbacks struct {
	// OnExchangeStarted fires when a provider's code exchange begins
	// (the "exchanging" presentation state).
	OnExchangeStarted func(provider credentials.Provider)

	// OnExchangeFinished fires when the exchange settles, success or not.
	OnExchangeFinished func(provider credentials.Provider)

	// OnAuthenticated fires after the session is persisted; the host
	// routes to its default landing view.
	OnAuthenticated func(provider credentials.Provider, user *users.Profile, cleanURL *url.URL)

	// OnLoginRequired fires when the exchange failed; the host routes to
	// the login view and surfaces err to the user.
	OnLoginRequired func(provider credentials.Provider, err error, cleanURL *url.URL)
}

func (cb Callbacks) exchangeStarted(p credentials.Provider) {
	if cb.OnExchangeStarted != nil {
		cb.OnExchangeStarted(p)
	}
}

func (cb Callbacks) exchangeFinished(p credentials.Provider) {
	if cb.OnExchangeFinished != nil {
		cb.OnExchangeFinished(p)
	}
}

func (cb Callbacks) authenticated(p credentials.Provider, user *users.Profile, cleanURL *url.URL) {
	if cb.OnAuthenticated != nil {
		cb.OnAuthenticated(p, user, cleanURL)
	}
}

func (cb Callbacks) loginRequired(p credentials.Provider, err error, cleanURL *url.URL) {
	if cb.OnLoginRequired != nil {
		cb.OnLoginRequired(p, err, cleanURL)
	}
}

// AuthorizeURL builds the provider consent URL for starting a social
// login, with a fresh state nonce. The redirect URI is the configured one
// for the provider, else <origin>/auth/<provider>/callback.
func (s *Service) AuthorizeURL(provider credentials.Provider, origin string) (authURL, state string, err error) {
	cfg, err := s.registry.Get(provider)
	if err != nil {
		return "", "", err
	}
	state = uuid.New().String()
	return cfg.AuthCodeURL(origin, state), state, nil
}

// HandleRedirect inspects a navigation URL and, when it is a provider
// callback carrying an authorization code, completes the code exchange
// exactly once.
//
// handled reports whether the URL was a callback this service acted on; a
// duplicate invocation for an already-exchanged redirect reports false and
// does nothing. The one-shot guard is set synchronously before any network
// work so near-simultaneous duplicate invocations cannot both exchange; it
// is reset only when the exchange fails, permitting a user-initiated retry.
func (s *Service) HandleRedirect(ctx context.Context, u *url.URL) (handled bool, err error) {
	cfg, ok := s.registry.Match(u.Path)
	if !ok {
		return false, nil
	}
	code := u.Query().Get("code")
	if code == "" {
		return false, nil
	}
	provider := cfg.Provider

	s.guardLock.Lock()
	if s.exchanged[provider] {
		s.guardLock.Unlock()
		return false, nil
	}
	s.exchanged[provider] = true
	s.guardLock.Unlock()

	s.callbacks.exchangeStarted(provider)

	redirectURI := cfg.RedirectURIFor(originOf(u))
	user, exchangeErr := s.ExchangeCode(ctx, provider, code, redirectURI)

	cleanURL := stripCode(u)
	s.callbacks.exchangeFinished(provider)

	if exchangeErr != nil {
		s.guardLock.Lock()
		delete(s.exchanged, provider)
		s.guardLock.Unlock()

		s.log.Warn().Err(exchangeErr).Str("provider", string(provider)).Msg("code exchange failed")
		s.callbacks.loginRequired(provider, exchangeErr, cleanURL)
		return true, exchangeErr
	}

	s.callbacks.authenticated(provider, user, cleanURL)
	return true, nil
}

// originOf returns scheme://host for a callback URL.
func originOf(u *url.URL) string {
	if u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// stripCode removes the authorization code (and its state echo) from the
// visible URL.
func stripCode(u *url.URL) *url.URL {
	clean := *u
	q := clean.Query()
	q.Del("code")
	q.Del("state")
	clean.RawQuery = q.Encode()
	return &clean
}
