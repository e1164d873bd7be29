package sessionjwt

import "github.com/golang-jwt/jwt/v5"

// RecordClaims combines standard claims with the persisted identity profile
type RecordClaims struct {
	jwt.RegisteredClaims
	Handle    string `json:"handle"`
	Contact   string `json:"contact"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar,omitempty"`
}
