package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/makkotwal/venus-auth/authflow"
	"github.com/makkotwal/venus-auth/authflow/callback"
	"github.com/makkotwal/venus-auth/authflow/challengestore"
	"github.com/makkotwal/venus-auth/backend"
	"github.com/makkotwal/venus-auth/identity"
	"github.com/makkotwal/venus-auth/internal/config"
	apperrors "github.com/makkotwal/venus-auth/internal/errors"
	"github.com/makkotwal/venus-auth/session"
	"github.com/makkotwal/venus-auth/session/recordstore"
	"github.com/makkotwal/venus-auth/ssoprovider"
	"github.com/makkotwal/venus-auth/token/sessionjwt"
	"github.com/stretchr/testify/require"
)

// overlapIssuer flags any two challenge issuances running at the same time.
type overlapIssuer struct {
	inFlight   atomic.Int32
	overlapped atomic.Bool
}

func (o *overlapIssuer) InitChallenge(context.Context, backend.ChallengeRequest) (*backend.Challenge, error) {
	if o.inFlight.Add(1) > 1 {
		o.overlapped.Store(true)
	}
	time.Sleep(2 * time.Millisecond)
	o.inFlight.Add(-1)
	return &backend.Challenge{ReferenceToken: "t1"}, nil
}

func (o *overlapIssuer) VerifyPasscode(context.Context, string, string) (*identity.Identity, error) {
	return &identity.Identity{ID: "u1", Handle: "alice", Role: identity.RoleUser}, nil
}

type stubSessionBackend struct{}

func (stubSessionBackend) CurrentSession(context.Context) (*identity.Identity, error) {
	return nil, apperrors.ErrUnauthenticated
}
func (stubSessionBackend) Logout(context.Context) error { return nil }

type stubResolver struct{}

func (stubResolver) Resolve(context.Context, string) (*ssoprovider.SessionData, error) {
	return nil, apperrors.ErrExchange
}

type stubExchanger struct{}

func (stubExchanger) CreateSession(context.Context, backend.ExchangeRequest) (*identity.Identity, error) {
	return nil, apperrors.ErrExchange
}

func newTestRouter(t *testing.T, issuer authflow.Issuer) http.Handler {
	t.Helper()
	c := config.New()

	codec, err := sessionjwt.NewCodec("test-secret")
	require.NoError(t, err)

	store, err := session.NewStore(recordstore.NewMemoryStore(), codec, stubSessionBackend{})
	require.NoError(t, err)
	store.Bootstrap(context.Background())

	controller, err := authflow.NewController(issuer, challengestore.NewInMemoryRepo(), store, c)
	require.NoError(t, err)

	processor, err := callback.NewProcessor(stubResolver{}, stubExchanger{}, store,
		c.GetProtectedPath(), c.GetLandingPath())
	require.NoError(t, err)

	return buildRouter(c, store, controller, processor)
}

func TestCredentialEndpointSerializesConcurrentRequests(t *testing.T) {
	issuer := &overlapIssuer{}
	router := newTestRouter(t, issuer)

	const requests = 8
	codes := make(chan int, requests)

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := bytes.NewBufferString(`{"username":"alice","email":"a@x.com","role":"user"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/login/credentials", body)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		require.Equal(t, http.StatusOK, code)
	}
	require.False(t, issuer.overlapped.Load(), "challenge issuances ran concurrently")
}
