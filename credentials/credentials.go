package credentials

import (
	"github.com/jrsteele09/go-climb-client/users"
)

// Provider tags how a session was established.
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderGoogle Provider = "google"
	ProviderKakao  Provider = "kakao"
)

// Known reports whether p is one of the providers this client understands.
func (p Provider) Known() bool {
	switch p {
	case ProviderEmail, ProviderGoogle, ProviderKakao:
		return true
	}
	return false
}

// Store is durable client-side storage for session data. Reads never fail:
// anything unreadable is reported as absent (fail-closed to an
// unauthenticated state). Write failures are logged by implementations,
// never propagated.
type Store interface {
	AccessToken() string
	SetAccessToken(token string) // empty string removes

	RefreshToken() string
	SetRefreshToken(token string)

	User() *users.Profile
	SetUser(profile *users.Profile)

	Provider() Provider
	SetProvider(p Provider)

	// ClearAll removes every stored field. Best-effort: individual removals
	// are issued back-to-back with no partial-failure recovery beyond
	// logging.
	ClearAll()

	// HasValidSession reports whether both an access token and a user are
	// present. Token expiry is deliberately not consulted here, the HTTP
	// layer checks expiry when it matters.
	HasValidSession() bool
}
