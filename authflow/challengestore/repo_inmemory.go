package challengestore

import (
	"fmt"
	"sync"

	apperrors "github.com/makkotwal/venus-auth/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo, the analog of the
// browser's session-scoped storage.
type InMemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewInMemoryRepo creates a new in-memory challenge repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		entries: make(map[string]Entry),
	}
}

// Upsert creates or replaces the challenge entry for a flow scope
func (r *InMemoryRepo) Upsert(scope string, entry Entry) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}
	if entry.ReferenceToken == "" {
		return fmt.Errorf("reference token is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[scope] = entry
	return nil
}

// Get retrieves the challenge entry for a flow scope
func (r *InMemoryRepo) Get(scope string) (Entry, error) {
	if scope == "" {
		return Entry{}, fmt.Errorf("scope is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[scope]
	if !ok {
		return Entry{}, apperrors.ErrNotFound
	}
	return entry, nil
}

// Delete removes the challenge entry for a flow scope
func (r *InMemoryRepo) Delete(scope string) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, scope) // Already absent is not an error
	return nil
}
