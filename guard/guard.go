// Package guard decides whether navigation to a protected view is
// admitted. It holds no state of its own: every decision is a pure
// function of the session store snapshot plus any identity handed off
// synchronously through navigation.
package guard

import (
	"github.com/makkotwal/venus-auth/identity"
	"github.com/makkotwal/venus-auth/session"
)

// Decision is the admission outcome for a navigation attempt.
type Decision int

const (
	// DecisionWait means the session check is still in flight; render a
	// waiting placeholder and decide later.
	DecisionWait Decision = iota
	// DecisionAdmit admits the navigation.
	DecisionAdmit
	// DecisionRedirect sends the user to the unauthenticated landing
	// route. The attempted destination is discarded.
	DecisionRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionAdmit:
		return "admit"
	case DecisionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Evaluate applies the admission rule in order: a navigation-carried
// identity admits immediately (covering the render cycle where the
// redirect exchange committed before the store's bootstrap flushed), a
// settling store waits, an authenticated store admits, anything else
// redirects.
func Evaluate(snap session.Snapshot, nav *identity.Identity) Decision {
	if nav != nil {
		return DecisionAdmit
	}
	if snap.Settling {
		return DecisionWait
	}
	if snap.Authenticated {
		return DecisionAdmit
	}
	return DecisionRedirect
}
