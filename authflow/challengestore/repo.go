package challengestore

import "time"

// Entry is the ephemeral challenge state held while a one-time-passcode
// flow is mid-flight. The reference token is single-use: deleted after
// successful verification, retained across failed attempts so the user
// can retry.
type Entry struct {
	ReferenceToken  string
	SharedSecret    string
	ProvisioningURI string
	IssuedAt        time.Time
}

// Repo stores challenge entries keyed by flow scope (one key per browsing
// session). A second flow under the same scope overwrites the first; the
// store does not arbitrate.
type Repo interface {
	Upsert(scope string, entry Entry) error
	Get(scope string) (Entry, error)
	Delete(scope string) error
}
