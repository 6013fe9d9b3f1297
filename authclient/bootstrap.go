package authclient

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-climb-client/credentials"
	apperrors "github.com/jrsteele09/go-climb-client/internal/errors"
	"github.com/jrsteele09/go-climb-client/token"
	"github.com/jrsteele09/go-climb-client/users"
)

// State is the terminal outcome of session initialization.
type State string

const (
	// StateAuthenticated means a usable session exists.
	StateAuthenticated State = "authenticated"
	// StateUnauthenticated means no session exists; the user must log in.
	StateUnauthenticated State = "unauthenticated"
	// StateFailed means initialization hit an unexpected error (e.g. the
	// refresh endpoint was unreachable). UIs treat it as unauthenticated;
	// the error is retained for diagnostics.
	StateFailed State = "failed"
)

// Result describes the session established (or not) at startup. Err is set
// on StateFailed, and tags an unauthenticated outcome caused by a rejected
// refresh with ErrSessionExpired.
type Result struct {
	State    State
	User     *users.Profile
	Provider credentials.Provider
	Err      error
}

// Authenticated reports whether the result carries a usable session.
func (r Result) Authenticated() bool {
	return r.State == StateAuthenticated
}

// Initialize establishes the initial authenticated/unauthenticated state:
// first from a server-set access-token cookie, then from stored
// credentials. An expired stored token is refreshed once; refresh rejection
// clears all stored auth data.
func (s *Service) Initialize(ctx context.Context) Result {
	if res, ok := s.tryCookieSession(); ok {
		return res
	}
	return s.tryStoredSession(ctx)
}

// tryCookieSession synthesises a session from a JWT-shaped access-token
// cookie. Cookie-established sessions are deliberately not persisted to the
// credential file: the cookie remains the single copy.
func (s *Service) tryCookieSession() (Result, bool) {
	raw := s.client.CookieAccessToken()
	if raw == "" || !token.IsJWTShaped(raw) {
		return Result{}, false
	}

	intro, err := token.Introspect(raw)
	if err != nil || !intro.Active {
		// Malformed or expired cookie token: fall through to the stored
		// path rather than crashing the bootstrap.
		return Result{}, false
	}

	nickname := intro.Nickname
	if nickname == "" {
		nickname = intro.Name
	}
	profile := &users.Profile{
		ID:       intro.Sub,
		Email:    intro.Email,
		Nickname: nickname,
		ImageURL: intro.Picture,
	}

	provider := credentials.Provider(intro.Provider)
	if !provider.Known() {
		provider = credentials.Provider(s.config.GetDefaultProvider())
	}

	s.log.Debug().Str("provider", string(provider)).Msg("session restored from cookie")
	return Result{State: StateAuthenticated, User: profile, Provider: provider}, true
}

// tryStoredSession restores a session from the credential store, refreshing
// an expired access token once.
func (s *Service) tryStoredSession(ctx context.Context) Result {
	accessToken := s.store.AccessToken()
	if accessToken == "" {
		return Result{State: StateUnauthenticated}
	}

	if !token.IsExpired(accessToken) {
		if user := s.store.User(); user != nil {
			return Result{State: StateAuthenticated, User: user, Provider: s.store.Provider()}
		}
		// Token present but no stored profile; restore it from the backend.
		user, err := s.Me(ctx)
		if err != nil {
			s.client.ClearSession()
			return s.initFailure(fmt.Errorf("restoring profile: %w", err))
		}
		s.store.SetUser(user)
		return Result{State: StateAuthenticated, User: user, Provider: s.store.Provider()}
	}

	// Expired: a single coordinated refresh decides the session's fate. The
	// client has already cleared all stored auth data on rejection.
	if _, err := s.client.Refresh(ctx); err != nil {
		if apperrors.Is(err, apperrors.ErrNetworkUnavailable) {
			return s.initFailure(apperrors.Wrapf(err, "initialization refresh"))
		}
		return Result{State: StateUnauthenticated, Err: apperrors.ErrSessionExpired}
	}

	user := s.store.User()
	if user == nil {
		restored, err := s.Me(ctx)
		if err != nil {
			s.client.ClearSession()
			return s.initFailure(fmt.Errorf("restoring profile: %w", err))
		}
		s.store.SetUser(restored)
		user = restored
	}
	return Result{State: StateAuthenticated, User: user, Provider: s.store.Provider()}
}

func (s *Service) initFailure(err error) Result {
	s.log.Warn().Err(err).Msg("session initialization failed")
	return Result{State: StateFailed, Err: err}
}
