package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")

	// OAuth2 errors
	ErrUnsupportedProvider = errors.New("unsupported OAuth2 provider")
	ErrNoVerifiedEmail     = errors.New("provider account has no verified email")
)
