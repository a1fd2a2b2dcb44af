package cache

import "errors"

// Sentinels shared by every cache implementation. Callers branch on
// ErrCacheMiss to fall through to the database; the other two mean the
// backend itself misbehaved, which the revocation path treats as a revoked
// answer rather than a pass.
var (
	ErrCacheMiss        = errors.New("cache: key not found")
	ErrCacheUnavailable = errors.New("cache: backend unavailable")
	ErrInvalidValue     = errors.New("cache: invalid value")
)
