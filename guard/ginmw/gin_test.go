package ginmw_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/makkotwal/venus-auth/guard/ginmw"
	"github.com/makkotwal/venus-auth/identity"
	apperrors "github.com/makkotwal/venus-auth/internal/errors"
	"github.com/makkotwal/venus-auth/session"
	"github.com/makkotwal/venus-auth/session/recordstore"
	"github.com/makkotwal/venus-auth/token/sessionjwt"
	"github.com/stretchr/testify/require"
)

type deniedBackend struct{}

func (deniedBackend) CurrentSession(context.Context) (*identity.Identity, error) {
	return nil, apperrors.ErrUnauthenticated
}

func (deniedBackend) Logout(context.Context) error { return nil }

func newStore(t *testing.T) *session.Store {
	t.Helper()
	codec, err := sessionjwt.NewCodec("test-secret")
	require.NoError(t, err)
	store, err := session.NewStore(recordstore.NewMemoryStore(), codec, deniedBackend{})
	require.NoError(t, err)
	return store
}

func newRouter(store *session.Store, opts ...ginmw.Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/dashboard", ginmw.Protect(store, "/", opts...), func(c *gin.Context) {
		id, ok := ginmw.GetIdentity(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id.ID})
	})
	return router
}

func TestProtectWaitsWhileSettling(t *testing.T) {
	router := newRouter(newStore(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestProtectRedirectsUnauthenticated(t *testing.T) {
	store := newStore(t)
	store.Bootstrap(context.Background())
	router := newRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestProtectAdmitsAndExposesIdentity(t *testing.T) {
	store := newStore(t)
	store.Bootstrap(context.Background())
	require.NoError(t, store.CommitRemote(context.Background(), identity.Identity{ID: "u1", Handle: "alice", Role: identity.RoleUser}))
	router := newRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "u1")
}

func TestProtectNavIdentityShortCircuits(t *testing.T) {
	store := newStore(t) // still settling

	nav := func(c *gin.Context) *identity.Identity {
		if c.GetHeader("X-Nav-Identity") == "" {
			return nil
		}
		return &identity.Identity{ID: "u9", Handle: "carol", Role: identity.RoleUser}
	}
	router := newRouter(store, ginmw.WithNavIdentity(nav))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("X-Nav-Identity", "1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "u9")
}
