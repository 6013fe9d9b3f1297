package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/go-climb-client/internal/errors"
)

// refreshResponse is the token refresh response body. The new access token
// normally arrives as a Set-Cookie; the body form is the fallback for
// deployments that do not use cookie-based sessions.
type refreshResponse struct {
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Refresh runs the coordinated token refresh and returns the new access
// token. If a refresh is already in flight the call queues behind it and
// observes the same outcome; otherwise this call performs the exchange.
//
// A missing refresh token or a rejected refresh is fatal for the session:
// stored credentials and session cookies are cleared and the
// session-invalidated callback fires before the error is returned.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	c.refreshLock.Lock()
	if c.refreshing {
		waiter := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, waiter)
		c.refreshLock.Unlock()

		select {
		case res := <-waiter:
			return res.token, res.err
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for token refresh: %w", ctx.Err())
		}
	}
	c.refreshing = true
	c.refreshLock.Unlock()

	token, err := c.refresh(ctx)

	c.refreshLock.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.refreshLock.Unlock()

	// Every queued request observes this exchange's outcome.
	for _, waiter := range waiters {
		waiter <- refreshResult{token: token, err: err}
	}

	return token, err
}

// refresh performs the single refresh exchange.
func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken := c.refreshTokenValue()
	if refreshToken == "" {
		c.log.Warn().Msg("token refresh requested with no refresh token")
		c.invalidateSession()
		return "", apperrors.ErrNoRefreshToken
	}

	u := *c.baseURL
	u.Path = RefreshPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	// The refresh cookie normally rides the jar. A file-stored refresh
	// token (password-login fallback) is injected for this request only.
	if c.cookieValue(RefreshTokenCookie) == "" {
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: refreshToken})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transient transport failure: session state is left intact so a
		// later attempt can still succeed.
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, classifyTransportErr(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Int("status", resp.StatusCode).Msg("token refresh rejected")
		c.invalidateSession()
		return "", fmt.Errorf("%w: status %d", apperrors.ErrRefreshFailed, resp.StatusCode)
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && err != io.EOF {
		c.log.Warn().Err(err).Msg("token refresh response undecodable")
	}

	// Prefer the cookie the response just set; fall back to the body token.
	newToken := c.CookieAccessToken()
	if newToken == "" {
		newToken = body.Token
	}
	if newToken == "" {
		c.invalidateSession()
		return "", fmt.Errorf("%w: no access token in refresh response", apperrors.ErrRefreshFailed)
	}

	c.store.SetAccessToken(newToken)
	if body.RefreshToken != "" {
		c.store.SetRefreshToken(body.RefreshToken)
	}

	c.log.Debug().Msg("access token refreshed")
	return newToken, nil
}

// refreshTokenValue prefers the cookie-held refresh token over the stored
// fallback.
func (c *Client) refreshTokenValue() string {
	if tok := c.cookieValue(RefreshTokenCookie); tok != "" {
		return tok
	}
	return c.store.RefreshToken()
}
