package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique constraint is violated,
	// e.g. two concurrent callbacks racing to create the same provider
	// identity. Callers re-read and decide between LOGIN and rejection.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrLastLoginMethodRemoval is returned by DeleteLoginMethod when the
	// method is the account's only one. An account never exists without at
	// least one way to log in.
	ErrLastLoginMethodRemoval = errors.New("cannot remove the last login method")

	// ErrMethodNotOwned is returned when a login method does not belong to
	// the account attempting to mutate it.
	ErrMethodNotOwned = errors.New("login method not owned by account")
)
