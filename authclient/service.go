package authclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-climb-client/credentials"
	"github.com/jrsteele09/go-climb-client/httpclient"
	"github.com/jrsteele09/go-climb-client/internal/config"
	apperrors "github.com/jrsteele09/go-climb-client/internal/errors"
	"github.com/jrsteele09/go-climb-client/internal/utils"
	"github.com/jrsteele09/go-climb-client/providers"
	"github.com/jrsteele09/go-climb-client/users"
)

// Auth endpoints consumed by the service.
const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	logoutPath   = "/token/logout"
	mePath       = "/user/me"
)

// IDTokenVerifier validates a provider-issued ID token before its claims
// are trusted.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) error
}

// Service orchestrates authentication against the backend: password login,
// registration, logout, social code exchange, and the startup bootstrap.
type Service struct {
	client    *httpclient.Client
	store     credentials.Store
	registry  *providers.Registry
	config    config.Config
	log       zerolog.Logger
	callbacks Callbacks
	verifier  IDTokenVerifier

	// One-shot exchange guard, per provider, scoped to this Service's
	// lifetime. Set synchronously before any network work; reset only on
	// exchange failure so the user can retry.
	guardLock sync.Mutex
	exchanged map[credentials.Provider]bool
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// WithCallbacks registers the UI-facing notification callbacks.
func WithCallbacks(cb Callbacks) ServiceOption {
	return func(s *Service) {
		s.callbacks = cb
	}
}

// WithIDTokenVerifier enables verification of provider ID tokens returned
// alongside social exchanges.
func WithIDTokenVerifier(v IDTokenVerifier) ServiceOption {
	return func(s *Service) {
		s.verifier = v
	}
}

// NewService initializes a new auth Service with required dependencies.
func NewService(client *httpclient.Client, registry *providers.Registry, cfg config.Config, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("[NewService] client is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("[NewService] registry is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("[NewService] config is required")
	}

	s := &Service{
		client:    client,
		store:     client.Store(),
		registry:  registry,
		config:    cfg,
		log:       zerolog.Nop(),
		exchanged: make(map[credentials.Provider]bool),
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Login performs a password login and persists the resulting session.
func (s *Service) Login(ctx context.Context, email, password string) (*users.Profile, error) {
	var body SessionResponse
	resp, err := s.client.Do(ctx, http.MethodPost, loginPath, LoginRequest{Email: email, Password: password}, &body)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return nil, fmt.Errorf("login: %w", apperrors.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	user, err := s.persistSession(credentials.ProviderEmail, &body, resp.Header)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.log.Info().Str("provider", string(credentials.ProviderEmail)).Msg("session established")
	return user, nil
}

// Register creates an account and persists the session the backend opens
// for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*users.Profile, error) {
	var body SessionResponse
	resp, err := s.client.Do(ctx, http.MethodPost, registerPath, req, &body)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.persistSession(credentials.ProviderEmail, &body, resp.Header)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return user, nil
}

// Logout invalidates the server-side session and clears every client-side
// credential. Local state is cleared regardless of the server's answer.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.client.Do(ctx, http.MethodPost, logoutPath, nil, nil)
	s.client.ClearSession()
	if err != nil {
		s.log.Warn().Err(err).Msg("server-side logout failed, local session cleared anyway")
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Me fetches the profile for the current bearer token.
func (s *Service) Me(ctx context.Context) (*users.Profile, error) {
	var profile users.Profile
	if err := s.client.Get(ctx, mePath, &profile); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &profile, nil
}

// ExchangeCode trades a provider authorization code for a session. The
// access token is read from the `Authorization: Bearer` response header,
// with the body token as fallback.
func (s *Service) ExchangeCode(ctx context.Context, provider credentials.Provider, code, redirectURI string) (*users.Profile, error) {
	if _, err := s.registry.Get(provider); err != nil {
		return nil, err
	}

	var body SessionResponse
	exchangePath := "/auth/" + string(provider) + "/exchange"
	resp, err := s.client.Do(ctx, http.MethodPost, exchangePath, ExchangeRequest{Code: code, RedirectURI: redirectURI}, &body)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) || isClientRejection(err) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrProviderRejected, err)
		}
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	if idToken := utils.Value(body.IdToken); s.verifier != nil && idToken != "" {
		if err := s.verifier.Verify(ctx, idToken); err != nil {
			return nil, fmt.Errorf("%w: id token verification: %v", apperrors.ErrProviderRejected, err)
		}
	}

	user, err := s.persistSession(provider, &body, resp.Header)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	s.log.Info().Str("provider", string(provider)).Msg("session established")
	return user, nil
}

// persistSession writes the exchanged session into the credential store.
func (s *Service) persistSession(provider credentials.Provider, body *SessionResponse, header http.Header) (*users.Profile, error) {
	token := bearerFromHeader(header)
	if token == "" {
		token = utils.Value(body.Token)
	}
	if token == "" {
		// Cookie-based deployments set the token via Set-Cookie only.
		token = s.client.CookieAccessToken()
	}
	if token == "" {
		return nil, fmt.Errorf("%w: no access token in auth response", apperrors.ErrInvalidToken)
	}
	if body.User == nil {
		return nil, fmt.Errorf("%w: no user in auth response", apperrors.ErrInvalidToken)
	}

	if tag := credentials.Provider(body.Provider); tag.Known() {
		provider = tag
	}

	s.store.SetAccessToken(token)
	s.store.SetUser(body.User)
	s.store.SetProvider(provider)
	if rt := utils.Value(body.RefreshToken); rt != "" {
		s.store.SetRefreshToken(rt)
	}
	return body.User, nil
}

func bearerFromHeader(header http.Header) string {
	raw := header.Get("Authorization")
	if raw == "" {
		return ""
	}
	if tok, found := strings.CutPrefix(raw, "Bearer "); found {
		return strings.TrimSpace(tok)
	}
	return ""
}

// isClientRejection reports whether err is a 4xx API error, i.e. the
// backend (or provider behind it) rejected the code rather than failing.
func isClientRejection(err error) bool {
	var apiErr *httpclient.APIError
	if !apperrors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}
