// Package authflow drives the interactive sign-in state machine: credential
// entry, challenge issuance, passcode verification and session commit, plus
// the side exit to the external identity provider.
//
// The controller is single-writer by design: it models one user's sign-in
// surface, where UI events and network completions interleave on one
// logical thread. It is not safe for concurrent use.
package authflow

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/makkotwal/venus-auth/authflow/challengestore"
	"github.com/makkotwal/venus-auth/backend"
	"github.com/makkotwal/venus-auth/identity"
	apperrors "github.com/makkotwal/venus-auth/internal/errors"
	"github.com/makkotwal/venus-auth/session"
	"github.com/makkotwal/venus-auth/ssoprovider"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// State is the interactive flow's current position.
type State string

const (
	StateCredentials State = "credentials"
	StateChallenge   State = "challenge"
	StateCommitted   State = "committed"
)

const (
	qrRendererURL = "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data="
	demoNoticeTTL = 10 * time.Second

	// PasscodeLength is a length hint for rendering the passcode input;
	// entries are not strictly validated client-side.
	PasscodeLength = 6

	genericRetryMessage = "Failed to initialize 2FA. Please try again."
)

// Issuer is the slice of the backend client the interactive flow needs.
type Issuer interface {
	InitChallenge(ctx context.Context, req backend.ChallengeRequest) (*backend.Challenge, error)
	VerifyPasscode(ctx context.Context, referenceToken, passcode string) (*identity.Identity, error)
}

// Config is the configuration surface the flow reads.
type Config interface {
	IsDemoMode() bool
	GetAppOrigin() string
	GetProtectedPath() string
}

// Credentials is the proposed identity entered in the credentials step.
type Credentials struct {
	Handle  string
	Contact string
	Role    string
}

// ChallengeView is what the challenge step renders: a scannable code URL
// and the shared secret for manual entry.
type ChallengeView struct {
	QRCodeURL    string
	SharedSecret string
}

// Form mirrors the flow's input fields so a rendering host can repopulate
// them across re-renders.
type Form struct {
	Credentials Credentials
	Passcode    string
}

// Controller drives the credential + one-time-passcode sign-in path.
type Controller struct {
	issuer     Issuer
	challenges challengestore.Repo
	session    *session.Store
	cfg        Config
	notifier   Notifier
	onComplete func(identity.Identity)
	log        zerolog.Logger

	// scope keys the ephemeral challenge entry for this browsing session.
	// Two controllers sharing a repo do not share challenges.
	scope string

	state State
	form  Form
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

// WithNotifier sets the user notification surface.
func WithNotifier(n Notifier) ControllerOption {
	return func(c *Controller) { c.notifier = n }
}

// WithCompletionCallback sets the callback invoked after a successful
// commit; navigation uses it to close the flow.
func WithCompletionCallback(fn func(identity.Identity)) ControllerOption {
	return func(c *Controller) { c.onComplete = fn }
}

// WithControllerLogger sets the controller's logger.
func WithControllerLogger(log zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.log = log }
}

// WithFlowScope pins the challenge-store key instead of generating one.
// Hosts that persist the key across reloads can resume a pending
// challenge; tests use it for determinism.
func WithFlowScope(scope string) ControllerOption {
	return func(c *Controller) { c.scope = scope }
}

// NewController creates a flow controller in the credentials state.
func NewController(issuer Issuer, challenges challengestore.Repo, sessionStore *session.Store, cfg Config, options ...ControllerOption) (*Controller, error) {
	if issuer == nil {
		return nil, errors.New("[NewController] issuer is required")
	}
	if challenges == nil {
		return nil, errors.New("[NewController] challenge repo is required")
	}
	if sessionStore == nil {
		return nil, errors.New("[NewController] session store is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewController] config is required")
	}

	c := &Controller{
		issuer:     issuer,
		challenges: challenges,
		session:    sessionStore,
		cfg:        cfg,
		notifier:   NopNotifier{},
		log:        zerolog.Nop(),
		scope:      uuid.NewString(),
		state:      StateCredentials,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// State returns the flow's current state.
func (c *Controller) State() State {
	return c.state
}

// Form returns the flow's current input fields.
func (c *Controller) Form() Form {
	return c.form
}

// SubmitIdentity validates the proposed identity and asks the issuer for a
// challenge. On success the flow moves to the challenge step; on any
// failure it stays where it is.
func (c *Controller) SubmitIdentity(ctx context.Context, creds Credentials) (*ChallengeView, error) {
	creds.Handle = strings.TrimSpace(creds.Handle)
	creds.Contact = strings.TrimSpace(creds.Contact)

	if creds.Handle == "" || creds.Contact == "" {
		c.notifier.Notify(Notice{
			Level:   LevelError,
			Title:   "Validation Error",
			Message: "Please fill in all required fields",
		})
		return nil, ErrValidation
	}
	c.form.Credentials = creds

	challenge, err := c.issuer.InitChallenge(ctx, backend.ChallengeRequest{
		Handle:  creds.Handle,
		Contact: creds.Contact,
		Role:    string(identity.ParseRole(creds.Role)),
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("challenge issuance failed")
		c.notifier.Notify(Notice{
			Level:   LevelError,
			Title:   "Error",
			Message: genericRetryMessage,
		})
		return nil, apperrors.Wrapf(ErrChallengeIssuance, "%v", err)
	}

	if err := c.challenges.Upsert(c.scope, challengestore.Entry{
		ReferenceToken:  challenge.ReferenceToken,
		SharedSecret:    challenge.SharedSecret,
		ProvisioningURI: challenge.ProvisioningURI,
		IssuedAt:        time.Now(),
	}); err != nil {
		return nil, apperrors.Wrapf(ErrChallengeIssuance, "store challenge: %v", err)
	}

	c.state = StateChallenge

	if challenge.DemoPasscode != "" && c.cfg.IsDemoMode() {
		c.notifier.Notify(Notice{
			Level:   LevelInfo,
			Title:   "Demo Mode",
			Message: "For testing, use OTP: " + challenge.DemoPasscode,
			TTL:     demoNoticeTTL,
		})
	}

	return &ChallengeView{
		QRCodeURL:    QRCodeURL(challenge.ProvisioningURI),
		SharedSecret: challenge.SharedSecret,
	}, nil
}

// SubmitPasscode verifies the user-entered passcode against the pending
// challenge and commits the session on success. A rejection keeps the
// reference token so the user can retry; a missing token sends the user
// back to the credentials step.
func (c *Controller) SubmitPasscode(ctx context.Context, passcode string) (*identity.Identity, error) {
	c.form.Passcode = passcode

	entry, err := c.challenges.Get(c.scope)
	if err != nil {
		c.state = StateCredentials
		c.form.Passcode = ""
		c.notifier.Notify(Notice{
			Level:   LevelError,
			Title:   "Verification Failed",
			Message: "Session expired. Please try again.",
		})
		return nil, ErrSessionExpired
	}

	id, err := c.issuer.VerifyPasscode(ctx, entry.ReferenceToken, passcode)
	if err != nil {
		// Token deliberately retained: the user may retry against the
		// same challenge.
		c.form.Passcode = ""
		message := "Invalid OTP code. Please try again."
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			message = apiErr.Detail
		}
		c.notifier.Notify(Notice{
			Level:   LevelError,
			Title:   "Verification Failed",
			Message: message,
		})
		return nil, apperrors.Wrapf(ErrVerification, "%s", message)
	}

	if err := c.challenges.Delete(c.scope); err != nil {
		c.log.Warn().Err(err).Msg("failed to discard challenge entry")
	}

	if err := c.session.CommitLocal(ctx, *id); err != nil {
		return nil, apperrors.Wrapf(err, "[SubmitPasscode] commit session")
	}

	c.form = Form{}
	c.state = StateCommitted

	c.notifier.Notify(Notice{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: "2FA verification successful!",
	})

	if c.onComplete != nil {
		c.onComplete(*id)
	}
	return id, nil
}

// Abandon returns the flow to the credentials step, clearing the entered
// passcode. The issued reference token stays in the challenge store;
// resubmitting identity always reissues a fresh challenge anyway.
func (c *Controller) Abandon() {
	c.state = StateCredentials
	c.form.Passcode = ""
}

// SSOLoginURL builds the outbound redirect to the external identity
// provider. The URL's shape is a hard provider contract; see
// ssoprovider.LoginURL.
func (c *Controller) SSOLoginURL() string {
	return ssoprovider.LoginURL(c.cfg.GetAppOrigin(), c.cfg.GetProtectedPath())
}

// QRCodeURL derives a renderable scannable-code URL from a provisioning
// URI. Pure URL templating against the third-party renderer, no fetch.
func QRCodeURL(provisioningURI string) string {
	return qrRendererURL + url.QueryEscape(provisioningURI)
}
