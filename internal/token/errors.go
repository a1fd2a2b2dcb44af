package token

import "errors"

var (
	// ErrTokenGeneration indicates token signing failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrTokenMalformed indicates the token could not be parsed as a JWT
	ErrTokenMalformed = errors.New("malformed token")

	// ErrTokenExpired indicates the token's exp claim is in the past
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenBadSignature indicates the signature does not verify against
	// the current key
	ErrTokenBadSignature = errors.New("invalid token signature")

	// ErrTokenRevoked indicates the token's jti is on the blacklist
	ErrTokenRevoked = errors.New("token revoked")

	// ErrNotRefreshToken indicates an access token was presented where a
	// refresh token is required
	ErrNotRefreshToken = errors.New("not a refresh token")

	// ErrAccountNotFound indicates the account behind a refresh token no
	// longer exists
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountDisabled indicates the account behind a refresh token has
	// been disabled since issuance
	ErrAccountDisabled = errors.New("account disabled")
)
