package identity

import (
	"net/url"
	"strings"
)

// RoleType represents the role an authenticated principal signed in as
type RoleType string

const (
	RoleUser  RoleType = "user"  // Regular visitor, can browse and upload own listings
	RoleAdmin RoleType = "admin" // Can manage users and listing field visibility
)

// ParseRole normalizes a role value to the closed role set. Anything
// outside the set (including empty) becomes RoleUser.
func ParseRole(s string) RoleType {
	switch RoleType(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Identity is the authenticated principal held by the session store for
// the lifetime of a session.
type Identity struct {
	ID        string   `json:"user_id,omitempty"`  // Stable identifier assigned by the exchange service
	Handle    string   `json:"username,omitempty"` // Display name
	Contact   string   `json:"email,omitempty"`    // Contact address
	Role      RoleType `json:"role,omitempty"`     // One of the closed role set
	AvatarURL string   `json:"picture,omitempty"`  // Optional avatar reference
}

// Normalize returns a copy with the role clamped to the closed set.
// Applied at the session store boundary so downstream consumers never see
// an unknown role. Every other field is stored exactly as the exchange
// service returned it, including an absent avatar; filling avatars is the
// backend's job, not the client's.
func (id Identity) Normalize() Identity {
	id.Role = ParseRole(string(id.Role))
	return id
}

// IsAdmin reports whether the principal signed in with the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// DefaultAvatarURL builds a renderable avatar URL for a handle. Pure URL
// templating against the ui-avatars renderer, no network fetch.
func DefaultAvatarURL(handle string) string {
	name := strings.ReplaceAll(handle, " ", "+")
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=fbbf24&color=000"
}
