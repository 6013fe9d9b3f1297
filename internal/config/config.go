package config

import (
	"fmt"
	"time"
)

type Config interface {
	ClientConfig
	OAuthConfig
}

// ClientConfig exposes the general client options.
type ClientConfig interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetEnv() string
}

// OAuthConfig exposes the per-provider OAuth client options.
type OAuthConfig interface {
	GetGoogleClientID() string
	GetGoogleRedirectURI() string
	GetKakaoClientID() string
	GetKakaoRedirectURI() string
	GetDefaultProvider() string
}

type mainConfig struct {
	EnvVars
}

// New builds the configuration from environment variables, applying
// defaults for anything unset.
func New() (Config, error) {
	vars, err := ParseEnv()
	if err != nil {
		return nil, fmt.Errorf("[config New] %w", err)
	}
	return mainConfig{EnvVars: vars}, nil
}

// MustNew is New for call sites where a config error is a programming error
// (tests, examples).
func MustNew() Config {
	cfg, err := New()
	if err != nil {
		panic(err)
	}
	return cfg
}
