package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-climb-client/credentials"
	apperrors "github.com/jrsteele09/go-climb-client/internal/errors"
)

// Cookie names the backend uses for session credentials. The refresh cookie
// is normally server-set and rides the cookie jar on refresh calls.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

const defaultTimeout = 15 * time.Second

// RefreshPath is the token refresh endpoint.
const RefreshPath = "/token/refresh"

// Response carries the transport-level details of a completed request for
// callers that need more than the decoded body (e.g. reading a token out of
// a response header).
type Response struct {
	StatusCode int
	Header     http.Header
}

// Client wraps http.Client with bearer-credential injection and a
// coordinated token-refresh interceptor. All refresh state is per-instance,
// tests construct a fresh Client per case.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	store      credentials.Store
	log        zerolog.Logger

	// onSessionInvalidated is notified after a fatal auth failure has
	// cleared the stored session. Navigation is the host application's
	// concern.
	onSessionInvalidated func()

	// Refresh coordination. At most one refresh exchange is in flight;
	// every 401 that arrives meanwhile queues a waiter that observes the
	// same outcome.
	refreshLock sync.Mutex
	refreshing  bool
	waiters     []chan refreshResult
}

type refreshResult struct {
	token string
	err   error
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A cookie jar is
// attached if the supplied client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout on the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithOnSessionInvalidated registers the session-invalidated callback.
func WithOnSessionInvalidated(fn func()) Option {
	return func(c *Client) {
		c.onSessionInvalidated = fn
	}
}

// New creates a Client for the API at baseURL, persisting credentials in
// store.
func New(baseURL string, store credentials.Store, options ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("[httpclient New] store is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("[httpclient New] invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[httpclient New] base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("[httpclient New] cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Store returns the credential store the client persists sessions into.
func (c *Client) Store() credentials.Store {
	return c.store
}

// AccessToken returns the current bearer token, preferring a cookie-sourced
// token over the stored one when both exist.
func (c *Client) AccessToken() string {
	if tok := c.CookieAccessToken(); tok != "" {
		return tok
	}
	return c.store.AccessToken()
}

// CookieAccessToken returns the access token held in the cookie jar for the
// API origin, or empty.
func (c *Client) CookieAccessToken() string {
	return c.cookieValue(AccessTokenCookie)
}

func (c *Client) cookieValue(name string) string {
	if c.httpClient.Jar == nil {
		return ""
	}
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		if ck.Name == name && ck.Value != "" {
			return ck.Value
		}
	}
	return ""
}

// Get issues a GET and decodes the JSON response into out (out may be nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	_, err := c.Do(ctx, http.MethodGet, path, nil, out)
	return err
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, http.MethodPost, path, body, out)
	return err
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, http.MethodPut, path, body, out)
	return err
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Do issues a request against the API. A 401 response triggers the
// coordinated refresh protocol and a single replay with the new token; a
// second 401 on the replayed request propagates.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (*Response, error) {
	return c.do(ctx, method, path, body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, retried bool) (*Response, error) {
	req, tokenUsed, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, classifyTransportErr(err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	// A 401 on a request that carried no token has no session to refresh;
	// unauthenticated calls such as a failed password login propagate as-is.
	if resp.StatusCode == http.StatusUnauthorized && !retried && path != RefreshPath && tokenUsed != "" {
		// Another caller may have finished a refresh while this request was
		// in flight; replay with the rotated token instead of refreshing
		// again.
		if current := c.AccessToken(); current != "" && current != tokenUsed {
			return c.do(ctx, method, path, body, out, true)
		}
		apiErr := newAPIError(resp)
		if _, refreshErr := c.Refresh(ctx); refreshErr != nil {
			// The refresh outcome is what every queued request observes;
			// the original 401 stays attached for diagnostics.
			return nil, fmt.Errorf("%s %s: %w (original: %v)", method, path, refreshErr, apiErr)
		}
		return c.do(ctx, method, path, body, out, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, newAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, string, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	u := *c.baseURL
	p, rawQuery, _ := strings.Cut(path, "?")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(p, "/")
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, "", err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")
	token := c.AccessToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, token, nil
}

// ClearSession removes every stored credential and the session cookies.
// Used for explicit logout; the interceptor's fatal path additionally
// notifies onSessionInvalidated.
func (c *Client) ClearSession() {
	c.store.ClearAll()
	c.expireSessionCookies()
}

func (c *Client) invalidateSession() {
	c.ClearSession()
	c.log.Info().Msg("session invalidated")
	if c.onSessionInvalidated != nil {
		c.onSessionInvalidated()
	}
}

// expireSessionCookies overwrites the session cookies in the jar with
// already-expired ones so they are no longer sent.
func (c *Client) expireSessionCookies() {
	if c.httpClient.Jar == nil {
		return
	}
	expired := make([]*http.Cookie, 0, 2)
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		expired = append(expired, &http.Cookie{Name: name, Value: "", MaxAge: -1})
	}
	c.httpClient.Jar.SetCookies(c.baseURL, expired)
}

func classifyTransportErr(err error) error {
	if apperrors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", apperrors.ErrCancelledByUser, err)
	}
	var uerr *url.Error
	if apperrors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: timeout: %v", apperrors.ErrNetworkUnavailable, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrNetworkUnavailable, err)
}
