package identity_test

import (
	"testing"

	"github.com/makkotwal/venus-auth/identity"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected identity.RoleType
	}{
		{"admin", "admin", identity.RoleAdmin},
		{"admin mixed case", "Admin", identity.RoleAdmin},
		{"user", "user", identity.RoleUser},
		{"empty defaults to user", "", identity.RoleUser},
		{"unknown defaults to user", "superuser", identity.RoleUser},
		{"whitespace trimmed", "  admin ", identity.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, identity.ParseRole(tt.input))
		})
	}
}

func TestNormalizeClampsRole(t *testing.T) {
	id := identity.Identity{ID: "u1", Handle: "alice", Contact: "a@x.com", Role: "root"}
	normalized := id.Normalize()
	require.Equal(t, identity.RoleUser, normalized.Role)
}

func TestNormalizeTouchesOnlyRole(t *testing.T) {
	id := identity.Identity{ID: "u1", Handle: "alice", Contact: "a@x.com", Role: identity.RoleAdmin}

	normalized := id.Normalize()

	require.Equal(t, id, normalized)
	require.Empty(t, normalized.AvatarURL)
}

func TestDefaultAvatarURL(t *testing.T) {
	got := identity.DefaultAvatarURL("alice smith")
	require.Contains(t, got, "ui-avatars.com")
	require.Contains(t, got, "alice%2Bsmith")
}

func TestIsAdmin(t *testing.T) {
	require.True(t, identity.Identity{Role: identity.RoleAdmin}.IsAdmin())
	require.False(t, identity.Identity{Role: identity.RoleUser}.IsAdmin())
}
