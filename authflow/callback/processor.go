// Package callback handles the return leg of the redirect sign-in path:
// the identity provider redirects back with a session identifier in the
// URL fragment, which is resolved and exchanged for a durable
// cookie-backed session.
package callback

import (
	"context"
	"net/url"
	"sync"

	"github.com/makkotwal/venus-auth/backend"
	"github.com/makkotwal/venus-auth/identity"
	apperrors "github.com/makkotwal/venus-auth/internal/errors"
	"github.com/makkotwal/venus-auth/session"
	"github.com/makkotwal/venus-auth/ssoprovider"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const sessionIDKey = "session_id"

// State is the exchange's current position.
type State string

const (
	StateAwaitingFragment State = "awaiting-fragment"
	StateExchanging       State = "exchanging"
	StateCommitted        State = "committed"
	StateFailed           State = "failed"
)

// Resolver resolves a redirect session identifier into session data.
type Resolver interface {
	Resolve(ctx context.Context, sessionID string) (*ssoprovider.SessionData, error)
}

// Exchanger creates the durable backend session from resolved session data.
type Exchanger interface {
	CreateSession(ctx context.Context, req backend.ExchangeRequest) (*identity.Identity, error)
}

// Result tells the host where to navigate after processing. On success,
// NavIdentity must be attached synchronously to the navigation so the
// route guard can admit before the session store's bootstrap settles.
type Result struct {
	Identity    *identity.Identity
	NavIdentity *identity.Identity
	RedirectTo  string
}

// Processor runs the fragment exchange exactly once per page load. The
// one-shot latch lives outside any render state: invoking ProcessFragment
// again, including from a doubled setup pass, returns the first result
// without touching the network.
type Processor struct {
	resolver      Resolver
	exchanger     Exchanger
	session       *session.Store
	protectedPath string
	landingPath   string
	log           zerolog.Logger

	once   sync.Once
	state  State
	result Result
	err    error
}

// ProcessorOption defines a function type to modify the Processor instance.
type ProcessorOption func(*Processor)

// WithLogger sets the processor's logger.
func WithLogger(log zerolog.Logger) ProcessorOption {
	return func(p *Processor) { p.log = log }
}

// NewProcessor creates a processor in the awaiting-fragment state.
func NewProcessor(resolver Resolver, exchanger Exchanger, sessionStore *session.Store, protectedPath, landingPath string, options ...ProcessorOption) (*Processor, error) {
	if resolver == nil {
		return nil, errors.New("[NewProcessor] resolver is required")
	}
	if exchanger == nil {
		return nil, errors.New("[NewProcessor] exchanger is required")
	}
	if sessionStore == nil {
		return nil, errors.New("[NewProcessor] session store is required")
	}

	p := &Processor{
		resolver:      resolver,
		exchanger:     exchanger,
		session:       sessionStore,
		protectedPath: protectedPath,
		landingPath:   landingPath,
		log:           zerolog.Nop(),
		state:         StateAwaitingFragment,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// State returns the exchange's current state.
func (p *Processor) State() State {
	return p.state
}

// HasSessionFragment reports whether a location fragment carries a session
// identifier. Synchronous; call it before any other route-level decision
// so an unauthenticated view never flashes ahead of the exchange.
func HasSessionFragment(fragment string) bool {
	return extractSessionID(fragment) != ""
}

// ProcessFragment extracts the session identifier from the fragment,
// resolves it, exchanges it for a durable session and commits the
// identity. Exactly-once per processor; repeat calls return the first
// outcome.
func (p *Processor) ProcessFragment(ctx context.Context, fragment string) (Result, error) {
	p.once.Do(func() {
		p.result, p.err = p.process(ctx, fragment)
	})
	return p.result, p.err
}

func (p *Processor) process(ctx context.Context, fragment string) (Result, error) {
	p.state = StateExchanging
	failed := Result{RedirectTo: p.landingPath}

	sessionID := extractSessionID(fragment)
	if sessionID == "" {
		p.state = StateFailed
		return failed, apperrors.ErrMissingSessionID
	}

	data, err := p.resolver.Resolve(ctx, sessionID)
	if err != nil {
		p.state = StateFailed
		p.log.Warn().Err(err).Msg("session data resolution failed")
		return failed, apperrors.Wrapf(apperrors.ErrExchange, "resolve session data: %v", err)
	}

	id, err := p.exchanger.CreateSession(ctx, backend.ExchangeRequest{
		SessionToken: data.SessionToken,
		Contact:      data.Contact,
		Name:         data.Name,
		AvatarURL:    data.AvatarURL,
	})
	if err != nil {
		p.state = StateFailed
		p.log.Warn().Err(err).Msg("session exchange failed")
		return failed, apperrors.Wrapf(apperrors.ErrExchange, "create session: %v", err)
	}

	if err := p.session.CommitRemote(ctx, *id); err != nil {
		p.state = StateFailed
		return failed, apperrors.Wrapf(err, "commit session")
	}

	p.state = StateCommitted
	committed := p.session.Snapshot().Identity
	return Result{
		Identity:    committed,
		NavIdentity: committed,
		RedirectTo:  p.protectedPath,
	}, nil
}

// extractSessionID parses a URL fragment as URL-encoded key/value pairs
// and returns the session identifier, or "".
func extractSessionID(fragment string) string {
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return ""
	}
	return values.Get(sessionIDKey)
}
