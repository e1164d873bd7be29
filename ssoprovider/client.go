// Package ssoprovider integrates with the external identity provider used
// for redirect-based single sign-on. It owns both ends of that contract:
// building the outbound login redirect URL and resolving the session
// identifier handed back in the return redirect's URL fragment.
package ssoprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// AuthOrigin is the external identity provider origin. It is fixed by the
// provider contract; it is deliberately not configurable.
const AuthOrigin = "https://auth.emergentagent.com/"

const (
	sessionDataPath = "/auth/v1/env/oauth/session-data"
	sessionIDHeader = "X-Session-ID"
)

// SessionData is the profile resolved from a redirect session identifier.
type SessionData struct {
	SessionToken string `json:"session_token"`
	Contact      string `json:"email"`
	Name         string `json:"name"`
	AvatarURL    string `json:"picture"`
}

// Client resolves redirect session identifiers against the provider's
// session-data endpoint. The provider is a third-party origin, not the
// application backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a provider client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve exchanges a session identifier for session data. The identifier
// travels in the X-Session-ID request header, never in the body or query.
func (c *Client) Resolve(ctx context.Context, sessionID string) (*SessionData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sessionDataPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Resolve] build request")
	}
	req.Header.Set(sessionIDHeader, sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Resolve]")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("[Resolve] provider returned status %d", resp.StatusCode)
	}

	var data SessionData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "[Resolve] decode response")
	}
	return &data, nil
}

// LoginURL builds the outbound redirect URL for the identity provider.
//
// The provider contract admits exactly one query parameter: redirect,
// carrying the application's own origin plus the protected destination
// path. Do not use an alternate origin, add fallbacks, or append any
// other parameter; any deviation breaks sign-in with the provider.
func LoginURL(appOrigin, protectedPath string) string {
	redirect := appOrigin + protectedPath
	return AuthOrigin + "?redirect=" + url.QueryEscape(redirect)
}
