// Package backend is the REST client for the application backend's
// authentication endpoints: challenge issuance, passcode verification,
// session exchange, the bootstrap session check and sign-out. The backend
// is an external collaborator; this package owns only the wire shapes and
// transport, never session state.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/makkotwal/venus-auth/identity"
	apperrors "github.com/makkotwal/venus-auth/internal/errors"
	"github.com/pkg/errors"
)

const defaultTimeout = 10 * time.Second

// Client talks to the application backend. Cookie-mode endpoints share a
// cookie jar so the durable session cookie set by VerifyPasscode or
// CreateSession is presented on CurrentSession and Logout.
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

// New creates a backend client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChallengeRequest is the proposed identity submitted to start the
// one-time-passcode flow.
type ChallengeRequest struct {
	Handle  string `json:"username"`
	Contact string `json:"email"`
	Role    string `json:"role"`
}

// Challenge is the ephemeral artifact issued by the backend. DemoPasscode
// is populated only by non-production backends and must never be relied
// upon.
type Challenge struct {
	ReferenceToken  string `json:"temp_token"`
	SharedSecret    string `json:"secret"`
	ProvisioningURI string `json:"totp_uri"`
	DemoPasscode    string `json:"demo_otp,omitempty"`
}

type verifyRequest struct {
	ReferenceToken string `json:"temp_token"`
	Passcode       string `json:"otp_code"`
}

// ExchangeRequest carries the resolved redirect-session data to the
// backend, which creates the durable cookie-backed session record.
type ExchangeRequest struct {
	SessionToken string `json:"session_token"`
	Contact      string `json:"email"`
	Name         string `json:"name"`
	AvatarURL    string `json:"picture"`
}

// APIError is a non-2xx backend response with its decoded detail message.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return e.Detail
}

// InitChallenge asks the backend to issue an enrollment challenge for the
// proposed identity.
func (c *Client) InitChallenge(ctx context.Context, req ChallengeRequest) (*Challenge, error) {
	var challenge Challenge
	if err := c.postJSON(ctx, "/api/auth/init-2fa", req, &challenge); err != nil {
		return nil, errors.Wrap(err, "[InitChallenge]")
	}
	return &challenge, nil
}

// VerifyPasscode exchanges the reference token plus user-entered passcode
// for an authenticated identity. The backend also sets the session cookie.
func (c *Client) VerifyPasscode(ctx context.Context, referenceToken, passcode string) (*identity.Identity, error) {
	var id identity.Identity
	req := verifyRequest{ReferenceToken: referenceToken, Passcode: passcode}
	if err := c.postJSON(ctx, "/api/auth/verify-2fa", req, &id); err != nil {
		return nil, errors.Wrap(err, "[VerifyPasscode]")
	}
	return &id, nil
}

// CreateSession exchanges a resolved redirect-session token for the
// canonical identity, creating the cookie-backed durable session.
func (c *Client) CreateSession(ctx context.Context, req ExchangeRequest) (*identity.Identity, error) {
	var id identity.Identity
	if err := c.postJSON(ctx, "/api/auth/session", req, &id); err != nil {
		return nil, errors.Wrap(err, "[CreateSession]")
	}
	return &id, nil
}

// CurrentSession returns the identity bound to the session cookie, or
// ErrUnauthenticated when the backend rejects the check. Used only at
// bootstrap.
func (c *Client) CurrentSession(ctx context.Context) (*identity.Identity, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[CurrentSession] build request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "[CurrentSession]")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrUnauthenticated
	}

	var id identity.Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, errors.Wrap(err, "[CurrentSession] decode response")
	}
	return &id, nil
}

// Logout invalidates the cookie-backed session. Best-effort from the
// caller's perspective; an error here never blocks local sign-out.
func (c *Client) Logout(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return errors.Wrap(err, "[Logout] build request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "[Logout]")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil {
		apiErr.Detail = detail.Detail
	}
	return apiErr
}
