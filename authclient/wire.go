package authclient

import (
	"github.com/jrsteele09/go-climb-client/users"
)

// LoginRequest is the body for the password login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body for the registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// ExchangeRequest is the body for the OAuth code exchange endpoints.
// RedirectURI must exactly match the URI originally used to request the
// code.
type ExchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

// SessionResponse is the session payload the auth endpoints return.
//
// The access token usually travels out-of-band (an `Authorization: Bearer`
// response header on exchange, a Set-Cookie on login); Token is the body
// fallback. RefreshToken is only present on flows that do not use
// cookie-based refresh.
type SessionResponse struct {
	// Token is the access token, when the deployment returns it in the body.
	Token *string `json:"token,omitempty"`

	// RefreshToken is the fallback refresh credential for non-cookie flows.
	// Lifespan: long-lived, rotates on each use.
	RefreshToken *string `json:"refreshToken,omitempty"`

	// IdToken is the provider-issued OpenID Connect ID token, forwarded by
	// the backend on social exchanges when available. The client may verify
	// it before trusting profile claims.
	IdToken *string `json:"idToken,omitempty"`

	// User is the profile snapshot for the established session.
	User *users.Profile `json:"user,omitempty"`

	// Provider tags how the session was established.
	Provider string `json:"provider,omitempty"`
}
