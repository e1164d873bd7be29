// Package sessionjwt signs and verifies the durable session record kept by
// the local persistence path. The record is adopted synchronously at
// bootstrap without a network round trip, so it is HMAC-signed to keep a
// tampered record from minting an arbitrary role.
package sessionjwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/makkotwal/venus-auth/identity"
)

const (
	issuer = "venus-auth"

	// RecordLifetime matches the backend session cookie lifetime.
	RecordLifetime = 7 * 24 * time.Hour
)

// Codec signs session records and parses them back into identities.
type Codec struct {
	secret  []byte
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// CodecOption defines a function type to modify the Codec instance.
type CodecOption func(*Codec)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowTime = nowFunc
	}
}

// NewCodec creates a Codec with the given HMAC secret.
func NewCodec(secret string, options ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("[NewCodec] secret is required")
	}

	codec := &Codec{
		secret:  []byte(secret),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(codec)
	}
	return codec, nil
}

// Sign converts an identity into a signed session record token.
func (c *Codec) Sign(id identity.Identity) (string, error) {
	now := c.nowTime()
	claims := RecordClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RecordLifetime)),
		},
		Handle:    id.Handle,
		Contact:   id.Contact,
		Role:      string(id.Role),
		AvatarURL: id.AvatarURL,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session record: %w", err)
	}
	return signedToken, nil
}

// Verify parses a session record token back into an identity. Expired or
// tampered records fail, which sends bootstrap down the backend check path.
func (c *Codec) Verify(tokenStr string) (*identity.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &RecordClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(func() time.Time { return c.nowTime() }))
	if err != nil {
		return nil, fmt.Errorf("failed to parse session record: %w", err)
	}

	claims, ok := token.Claims.(*RecordClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	id := identity.Identity{
		ID:        claims.Subject,
		Handle:    claims.Handle,
		Contact:   claims.Contact,
		Role:      identity.ParseRole(claims.Role),
		AvatarURL: claims.AvatarURL,
	}
	return &id, nil
}
