package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvVars carries every environment-sourced option the client recognises.
// Each option has a sensible default so the zero configuration talks to a
// local backend.
type EnvVars struct {
	AppName     string        `env:"APP_NAME" envDefault:"Go Climb Client"`
	APIBaseURL  string        `env:"CLIMB_API_BASE_URL" envDefault:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"CLIMB_HTTP_TIMEOUT" envDefault:"15s"`
	Env         string        `env:"ENV" envDefault:"DEV"`

	GoogleClientID    string `env:"GOOGLE_CLIENT_ID"`
	GoogleRedirectURI string `env:"GOOGLE_REDIRECT_URI"`
	KakaoClientID     string `env:"KAKAO_CLIENT_ID"`
	KakaoRedirectURI  string `env:"KAKAO_REDIRECT_URI"`

	// DefaultProvider tags cookie-established sessions whose token carries
	// no provider claim.
	DefaultProvider string `env:"DEFAULT_AUTH_PROVIDER" envDefault:"google"`
}

var _ Config = mainConfig{}

// ParseEnv reads EnvVars from the process environment.
func ParseEnv() (EnvVars, error) {
	return env.ParseAs[EnvVars]()
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetAPIBaseURL() string {
	return e.APIBaseURL
}

func (e EnvVars) GetHTTPTimeout() time.Duration {
	return e.HTTPTimeout
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) GetGoogleClientID() string {
	return e.GoogleClientID
}

func (e EnvVars) GetGoogleRedirectURI() string {
	return e.GoogleRedirectURI
}

func (e EnvVars) GetKakaoClientID() string {
	return e.KakaoClientID
}

func (e EnvVars) GetKakaoRedirectURI() string {
	return e.KakaoRedirectURI
}

func (e EnvVars) GetDefaultProvider() string {
	return e.DefaultProvider
}
