// Package ginmw provides Gin middleware for the route guard. It consumes
// the session store through guard.Evaluate and carries no auth logic of
// its own.
package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkotwal/venus-auth/guard"
	"github.com/makkotwal/venus-auth/identity"
	"github.com/makkotwal/venus-auth/session"
)

// KeyIdentity is the gin context key the admitted identity is stored under.
const KeyIdentity = "venus_identity"

// NavIdentityFunc extracts an identity handed off through navigation
// state, if the host carries one on the request.
type NavIdentityFunc func(c *gin.Context) *identity.Identity

// Option configures the middleware.
type Option func(*config)

type config struct {
	nav NavIdentityFunc
}

// WithNavIdentity sets the navigation-state identity extractor.
func WithNavIdentity(nav NavIdentityFunc) Option {
	return func(cfg *config) { cfg.nav = nav }
}

// Protect returns middleware admitting only authenticated navigation.
// Waiting responds 503 with Retry-After; a redirect goes to landingPath.
func Protect(store *session.Store, landingPath string, opts ...Option) gin.HandlerFunc {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		var navID *identity.Identity
		if cfg.nav != nil {
			navID = cfg.nav(c)
		}

		snap := store.Snapshot()
		switch guard.Evaluate(snap, navID) {
		case guard.DecisionWait:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session check in progress"})
		case guard.DecisionRedirect:
			c.Redirect(http.StatusFound, landingPath)
			c.Abort()
		default:
			if navID != nil {
				c.Set(KeyIdentity, *navID)
			} else if snap.Identity != nil {
				c.Set(KeyIdentity, *snap.Identity)
			}
			c.Next()
		}
	}
}

// GetIdentity returns the admitted identity from the gin context.
func GetIdentity(c *gin.Context) (identity.Identity, bool) {
	value, ok := c.Get(KeyIdentity)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := value.(identity.Identity)
	return id, ok
}
