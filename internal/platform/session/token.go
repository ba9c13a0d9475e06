package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the portal token payload the browser holds. The opaque session
// token rides in "sid"; the role is a convenience claim for the client and is
// never trusted server-side; role checks always resolve the session row.
type Claims struct {
	jwt.RegisteredClaims
	SessionToken string `json:"sid"`
	Role         string `json:"role,omitempty"`
}

// TokenCodec signs and verifies portal tokens with an HMAC key.
type TokenCodec struct {
	signingKey []byte
	issuer     string
}

// NewTokenCodec creates a codec. The key must be at least 32 bytes
// (config.Validate enforces this for configured keys).
func NewTokenCodec(signingKey []byte, issuer string) *TokenCodec {
	return &TokenCodec{signingKey: signingKey, issuer: issuer}
}

// Issue signs a portal token for the session, expiring with it.
func (tc *TokenCodec) Issue(s *Session) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tc.issuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
		SessionToken: s.Token,
		Role:         s.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign portal token: %w", err)
	}
	return signed, nil
}

// Verify parses a portal token and returns the embedded opaque session token.
func (tc *TokenCodec) Verify(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return tc.signingKey, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tc.issuer),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid portal token")
	}
	if claims.SessionToken == "" {
		return "", fmt.Errorf("portal token has no session")
	}
	return claims.SessionToken, nil
}
