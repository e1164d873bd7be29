package guard

import (
	"net/http"

	"github.com/makkotwal/venus-auth/identity"
	"github.com/makkotwal/venus-auth/session"
)

// NavIdentityFunc extracts an identity handed off through navigation
// state, if the host carries one on the request. Nil means no handoff.
type NavIdentityFunc func(r *http.Request) *identity.Identity

// Middleware wraps a handler with the admission check for plain net/http
// hosts. Waiting renders 503 with Retry-After; a redirect goes to the
// landing path with no return-destination memory.
func Middleware(store *session.Store, landingPath string, nav NavIdentityFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var navID *identity.Identity
			if nav != nil {
				navID = nav(r)
			}

			switch Evaluate(store.Snapshot(), navID) {
			case DecisionWait:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session check in progress", http.StatusServiceUnavailable)
			case DecisionRedirect:
				http.Redirect(w, r, landingPath, http.StatusFound)
			default:
				next(w, r)
			}
		}
	}
}
