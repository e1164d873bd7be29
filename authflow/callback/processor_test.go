package callback_test

import (
	"context"
	"testing"

	"github.com/makkotwal/venus-auth/authflow/callback"
	"github.com/makkotwal/venus-auth/backend"
	"github.com/makkotwal/venus-auth/identity"
	apperrors "github.com/makkotwal/venus-auth/internal/errors"
	"github.com/makkotwal/venus-auth/session"
	"github.com/makkotwal/venus-auth/session/recordstore"
	"github.com/makkotwal/venus-auth/ssoprovider"
	"github.com/makkotwal/venus-auth/token/sessionjwt"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	resolveFn func(ctx context.Context, sessionID string) (*ssoprovider.SessionData, error)
	calls     int
}

func (f *fakeResolver) Resolve(ctx context.Context, sessionID string) (*ssoprovider.SessionData, error) {
	f.calls++
	if f.resolveFn == nil {
		return nil, apperrors.ErrInternal
	}
	return f.resolveFn(ctx, sessionID)
}

type fakeExchanger struct {
	createSessionFn func(ctx context.Context, req backend.ExchangeRequest) (*identity.Identity, error)
	calls           int
}

func (f *fakeExchanger) CreateSession(ctx context.Context, req backend.ExchangeRequest) (*identity.Identity, error) {
	f.calls++
	if f.createSessionFn == nil {
		return nil, apperrors.ErrInternal
	}
	return f.createSessionFn(ctx, req)
}

type fakeSessionBackend struct{}

func (fakeSessionBackend) CurrentSession(context.Context) (*identity.Identity, error) {
	return nil, apperrors.ErrUnauthenticated
}

func (fakeSessionBackend) Logout(context.Context) error { return nil }

type processorFixture struct {
	processor *callback.Processor
	resolver  *fakeResolver
	exchanger *fakeExchanger
	store     *session.Store
	records   *recordstore.MemoryStore
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()

	codec, err := sessionjwt.NewCodec("test-secret")
	require.NoError(t, err)

	records := recordstore.NewMemoryStore()
	store, err := session.NewStore(records, codec, fakeSessionBackend{})
	require.NoError(t, err)

	f := &processorFixture{
		resolver:  &fakeResolver{},
		exchanger: &fakeExchanger{},
		store:     store,
		records:   records,
	}

	processor, err := callback.NewProcessor(f.resolver, f.exchanger, store, "/dashboard", "/")
	require.NoError(t, err)
	f.processor = processor
	return f
}

func (f *processorFixture) happyPath(t *testing.T) {
	t.Helper()
	f.resolver.resolveFn = func(_ context.Context, sessionID string) (*ssoprovider.SessionData, error) {
		require.Equal(t, "sess-1", sessionID)
		return &ssoprovider.SessionData{SessionToken: "tok-1", Contact: "a@x.com", Name: "Alice"}, nil
	}
	f.exchanger.createSessionFn = func(_ context.Context, req backend.ExchangeRequest) (*identity.Identity, error) {
		require.Equal(t, "tok-1", req.SessionToken)
		return &identity.Identity{ID: "u1", Handle: "Alice", Contact: "a@x.com", Role: identity.RoleUser}, nil
	}
}

func TestHasSessionFragment(t *testing.T) {
	require.True(t, callback.HasSessionFragment("session_id=sess-1"))
	require.True(t, callback.HasSessionFragment("foo=bar&session_id=sess-1"))
	require.False(t, callback.HasSessionFragment(""))
	require.False(t, callback.HasSessionFragment("foo=bar"))
	require.False(t, callback.HasSessionFragment("session_id="))
}

func TestProcessFragmentSuccess(t *testing.T) {
	f := newProcessorFixture(t)
	f.happyPath(t)

	result, err := f.processor.ProcessFragment(context.Background(), "session_id=sess-1")

	require.NoError(t, err)
	require.Equal(t, callback.StateCommitted, f.processor.State())
	require.Equal(t, "/dashboard", result.RedirectTo)
	require.NotNil(t, result.NavIdentity, "identity must ride navigation state")
	require.Equal(t, "u1", result.NavIdentity.ID)

	snap := f.store.Snapshot()
	require.True(t, snap.Authenticated)
	require.Equal(t, "u1", snap.Identity.ID)

	// Redirect path never writes the local durable record.
	_, err = f.records.Load(context.Background(), session.DefaultRecordKey)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProcessFragmentIsIdempotent(t *testing.T) {
	f := newProcessorFixture(t)
	f.happyPath(t)

	first, err := f.processor.ProcessFragment(context.Background(), "session_id=sess-1")
	require.NoError(t, err)

	// Simulates a doubled setup pass re-running the entry logic.
	second, err := f.processor.ProcessFragment(context.Background(), "session_id=sess-1")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, f.resolver.calls, "resolve endpoint must be hit exactly once")
	require.Equal(t, 1, f.exchanger.calls, "exchange endpoint must be hit exactly once")
}

func TestProcessFragmentMissingSessionID(t *testing.T) {
	f := newProcessorFixture(t)

	result, err := f.processor.ProcessFragment(context.Background(), "foo=bar")

	require.ErrorIs(t, err, apperrors.ErrMissingSessionID)
	require.Equal(t, callback.StateFailed, f.processor.State())
	require.Equal(t, "/", result.RedirectTo)
	require.Nil(t, result.Identity)
	require.Zero(t, f.resolver.calls)
}

func TestProcessFragmentResolveFailure(t *testing.T) {
	f := newProcessorFixture(t)
	f.resolver.resolveFn = func(context.Context, string) (*ssoprovider.SessionData, error) {
		return nil, apperrors.ErrInternal
	}

	result, err := f.processor.ProcessFragment(context.Background(), "session_id=sess-1")

	require.ErrorIs(t, err, apperrors.ErrExchange)
	require.Equal(t, callback.StateFailed, f.processor.State())
	require.Equal(t, "/", result.RedirectTo)
	require.Zero(t, f.exchanger.calls)
	require.False(t, f.store.Snapshot().Authenticated, "no partial session state on failure")
}

func TestProcessFragmentExchangeFailure(t *testing.T) {
	f := newProcessorFixture(t)
	f.resolver.resolveFn = func(context.Context, string) (*ssoprovider.SessionData, error) {
		return &ssoprovider.SessionData{SessionToken: "tok-1"}, nil
	}
	f.exchanger.createSessionFn = func(context.Context, backend.ExchangeRequest) (*identity.Identity, error) {
		return nil, apperrors.ErrInternal
	}

	result, err := f.processor.ProcessFragment(context.Background(), "session_id=sess-1")

	require.ErrorIs(t, err, apperrors.ErrExchange)
	require.Equal(t, callback.StateFailed, f.processor.State())
	require.Equal(t, "/", result.RedirectTo)
	require.False(t, f.store.Snapshot().Authenticated)
}
