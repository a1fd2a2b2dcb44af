package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload for both access and refresh tokens. TokenType
// discriminates the two.
type Claims struct {
	jwt.RegisteredClaims

	AccountID   string   `json:"account_id"`
	Email       string   `json:"email,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
	TokenType   string   `json:"type"`
}

// IssuedToken is a freshly signed token plus the metadata callers report to
// clients.
type IssuedToken struct {
	Token     string
	JTI       string
	TokenType string
	ExpiresAt time.Time
	ExpiresIn int64 // seconds
}

// Pair bundles the access and refresh tokens issued together on login and
// rotation.
type Pair struct {
	Access  *IssuedToken
	Refresh *IssuedToken
}

// Introspection is the RFC 7662 style view of a token.
type Introspection struct {
	Active      bool     `json:"active"`
	TokenType   string   `json:"token_type,omitempty"`
	Subject     string   `json:"sub,omitempty"`
	AccountID   string   `json:"account_id,omitempty"`
	Email       string   `json:"email,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
	Issuer      string   `json:"iss,omitempty"`
	Audience    []string `json:"aud,omitempty"`
	ExpiresAt   int64    `json:"exp,omitempty"`
	IssuedAt    int64    `json:"iat,omitempty"`
	JTI         string   `json:"jti,omitempty"`
}
