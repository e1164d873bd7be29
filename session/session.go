// Package session holds the process-wide authentication state: the active
// identity, the authenticated flag and the bootstrap settling flag. The
// store is an explicitly constructed object passed by reference to every
// component that reads or mutates session state; there is no ambient
// global.
package session

import (
	"context"
	"sync"

	"github.com/makkotwal/venus-auth/identity"
	apperrors "github.com/makkotwal/venus-auth/internal/errors"
	"github.com/makkotwal/venus-auth/session/recordstore"
	"github.com/makkotwal/venus-auth/token/sessionjwt"
	"github.com/rs/zerolog"
)

// DefaultRecordKey keys the durable record for a single-profile client.
const DefaultRecordKey = "current"

// SessionBackend is the slice of the application backend the store needs:
// the cookie-authenticated bootstrap check and best-effort sign-out.
type SessionBackend interface {
	CurrentSession(ctx context.Context) (*identity.Identity, error)
	Logout(ctx context.Context) error
}

// EventPublisher publishes sign-in/sign-out lifecycle events. Optional.
type EventPublisher interface {
	PublishSignedIn(userID, handle string) error
	PublishSignedOut(userID string) error
}

// Snapshot is a consistent read of the store's state. The authenticated
// flag is derived from the identity pointer, so the two can never disagree.
type Snapshot struct {
	Identity      *identity.Identity
	Authenticated bool
	Settling      bool
}

// Store is the session store. Initialized once at application start, torn
// down on explicit sign-out, otherwise lives for the application's
// lifetime.
type Store struct {
	records   recordstore.Store
	codec     *sessionjwt.Codec
	backend   SessionBackend
	publisher EventPublisher
	recordKey string
	log       zerolog.Logger

	bootstrapOnce sync.Once

	mu       sync.RWMutex
	identity *identity.Identity
	settling bool
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithEventPublisher wires an auth event publisher into the store.
func WithEventPublisher(p EventPublisher) StoreOption {
	return func(s *Store) { s.publisher = p }
}

// WithRecordKey overrides the durable record key (multi-profile hosts).
func WithRecordKey(key string) StoreOption {
	return func(s *Store) { s.recordKey = key }
}

// WithLogger sets the store's logger.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// NewStore creates a session store. The store starts settling until
// Bootstrap has run.
func NewStore(records recordstore.Store, codec *sessionjwt.Codec, backend SessionBackend, options ...StoreOption) (*Store, error) {
	if records == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "[NewStore] record store is required")
	}
	if codec == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "[NewStore] codec is required")
	}
	if backend == nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "[NewStore] backend is required")
	}

	store := &Store{
		records:   records,
		codec:     codec,
		backend:   backend,
		recordKey: DefaultRecordKey,
		log:       zerolog.Nop(),
		settling:  true,
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Bootstrap establishes the initial session state. The persisted durable
// record wins when present and valid; it is adopted synchronously with no
// network call. Otherwise the cookie-authenticated backend check runs; any
// failure there means unauthenticated, never an error. Runs at most once;
// the settling flag is dropped exactly once regardless of branch.
func (s *Store) Bootstrap(ctx context.Context) {
	s.bootstrapOnce.Do(func() {
		defer func() {
			s.mu.Lock()
			s.settling = false
			s.mu.Unlock()
		}()

		if record, err := s.records.Load(ctx, s.recordKey); err == nil {
			if id, err := s.codec.Verify(record); err == nil {
				s.setIdentity(*id)
				return
			}
			// Invalid or expired record, fall through to the backend check
			s.log.Debug().Msg("persisted session record rejected")
		}

		id, err := s.backend.CurrentSession(ctx)
		if err != nil {
			s.log.Debug().Msg("not authenticated")
			return
		}
		s.setIdentity(*id)
	})
}

// CommitLocal adopts an identity and persists it to the durable record
// store. Used by the one-time-passcode path.
func (s *Store) CommitLocal(ctx context.Context, id identity.Identity) error {
	id = id.Normalize()

	record, err := s.codec.Sign(id)
	if err != nil {
		return apperrors.Wrapf(err, "[CommitLocal] sign record")
	}
	if err := s.records.Save(ctx, s.recordKey, record); err != nil {
		return apperrors.Wrapf(err, "[CommitLocal] save record")
	}

	s.setIdentity(id)
	s.publishSignedIn(id)
	return nil
}

// CommitRemote adopts an identity without persisting a local record;
// durability is delegated to the backend session cookie. Used by the
// redirect exchange path.
func (s *Store) CommitRemote(_ context.Context, id identity.Identity) error {
	id = id.Normalize()
	s.setIdentity(id)
	s.publishSignedIn(id)
	return nil
}

// SignOut clears both session representations. The backend logout call is
// best-effort: its failure is logged and local state is cleared regardless.
func (s *Store) SignOut(ctx context.Context) {
	var userID string
	s.mu.RLock()
	if s.identity != nil {
		userID = s.identity.ID
	}
	s.mu.RUnlock()

	if err := s.records.Clear(ctx, s.recordKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted session record")
	}
	if err := s.backend.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("backend logout failed")
	}

	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()

	if s.publisher != nil && userID != "" {
		if err := s.publisher.PublishSignedOut(userID); err != nil {
			s.log.Warn().Err(err).Msg("failed to publish signed-out event")
		}
	}
}

// Snapshot returns a consistent view of the store's state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id *identity.Identity
	if s.identity != nil {
		copied := *s.identity
		id = &copied
	}
	return Snapshot{
		Identity:      id,
		Authenticated: id != nil,
		Settling:      s.settling,
	}
}

func (s *Store) setIdentity(id identity.Identity) {
	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()
}

func (s *Store) publishSignedIn(id identity.Identity) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSignedIn(id.ID, id.Handle); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish signed-in event")
	}
}
