package linker

import "errors"

var (
	// ErrProviderIdentityAlreadyBound means the (provider, subject) identity
	// belongs to a different account than the caller's. An identity is never
	// silently re-pointed.
	ErrProviderIdentityAlreadyBound = errors.New("provider identity already bound to another account")

	// ErrEmailCollision means the provider-supplied email already belongs to
	// an existing account; merging accounts by email is never automatic.
	ErrEmailCollision = errors.New("email already registered with different provider")

	// ErrUsernameTaken means the requested local username is in use.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrProviderAlreadyLinked means the account already has a login method
	// for this provider.
	ErrProviderAlreadyLinked = errors.New("account already has a login method for this provider")

	// ErrAccountNotFound means the target account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)
