package providers

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/jrsteele09/go-climb-client/credentials"
	"github.com/jrsteele09/go-climb-client/internal/config"
	apperrors "github.com/jrsteele09/go-climb-client/internal/errors"
)

// Config holds the OAuth client configuration for a single social provider.
// The code exchange itself is proxied through the backend (the client never
// holds a provider secret), so only the consent-URL side lives here.
type Config struct {
	Provider    credentials.Provider
	ClientID    string
	RedirectURI string // Explicitly configured; empty falls back to <origin> + CallbackPath
	Scopes      []string
	Endpoint    oauth2.Endpoint
}

// CallbackPath is the route the provider redirects back to.
func (c Config) CallbackPath() string {
	return "/auth/" + string(c.Provider) + "/callback"
}

// RedirectURIFor resolves the redirect URI that must accompany a code
// exchange: the configured one, else the constructed default of
// <origin>/auth/<provider>/callback. It must exactly match the URI used to
// request the code.
func (c Config) RedirectURIFor(origin string) string {
	if c.RedirectURI != "" {
		return c.RedirectURI
	}
	return strings.TrimRight(origin, "/") + c.CallbackPath()
}

// AuthCodeURL builds the provider consent URL for the authorization-code
// flow. state is echoed back on the redirect for CSRF protection.
func (c Config) AuthCodeURL(origin, state string) string {
	oc := oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURIFor(origin),
		Scopes:      c.Scopes,
		Endpoint:    c.Endpoint,
	}
	return oc.AuthCodeURL(state)
}

// Registry resolves provider configurations by tag.
type Registry struct {
	byProvider map[credentials.Provider]Config
}

// NewRegistry builds the registry for the providers the backend supports.
func NewRegistry(cfg config.OAuthConfig) *Registry {
	return &Registry{
		byProvider: map[credentials.Provider]Config{
			credentials.ProviderGoogle: {
				Provider:    credentials.ProviderGoogle,
				ClientID:    cfg.GetGoogleClientID(),
				RedirectURI: cfg.GetGoogleRedirectURI(),
				Scopes:      []string{"openid", "email", "profile"},
				Endpoint:    endpoints.Google,
			},
			credentials.ProviderKakao: {
				Provider:    credentials.ProviderKakao,
				ClientID:    cfg.GetKakaoClientID(),
				RedirectURI: cfg.GetKakaoRedirectURI(),
				Scopes:      []string{"profile_nickname", "profile_image", "account_email"},
				Endpoint:    endpoints.KaKao,
			},
		},
	}
}

// Get returns the configuration for a provider tag.
func (r *Registry) Get(p credentials.Provider) (Config, error) {
	cfg, ok := r.byProvider[p]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, p)
	}
	return cfg, nil
}

// Match maps a URL path to the provider whose callback route it is.
func (r *Registry) Match(path string) (Config, bool) {
	for _, cfg := range r.byProvider {
		if path == cfg.CallbackPath() {
			return cfg, true
		}
	}
	return Config{}, false
}

// Providers lists the registered provider tags.
func (r *Registry) Providers() []credentials.Provider {
	tags := make([]credentials.Provider, 0, len(r.byProvider))
	for p := range r.byProvider {
		tags = append(tags, p)
	}
	return tags
}
