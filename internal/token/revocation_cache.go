package token

import (
	"context"
	"time"

	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/models"
)

// CachedRevocationStore puts a cache in front of the revocation blacklist so
// token verification does not hit the database on every request. Negative
// answers are cached for a short TTL, which bounds how long a freshly
// revoked token may still verify on other nodes; the node that performed the
// revocation sees it immediately.
type CachedRevocationStore struct {
	store RevocationStore
	cache cache.Cache[bool]
	ttl   time.Duration
}

// NewCachedRevocationStore wraps a RevocationStore with a cache. A zero ttl
// defaults to 30 seconds.
func NewCachedRevocationStore(
	store RevocationStore,
	c cache.Cache[bool],
	ttl time.Duration,
) *CachedRevocationStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedRevocationStore{store: store, cache: c, ttl: ttl}
}

// RevokeToken writes through to the store and marks the jti revoked in the
// cache immediately.
func (c *CachedRevocationStore) RevokeToken(rt *models.RevokedToken) error {
	if err := c.store.RevokeToken(rt); err != nil {
		return err
	}
	ttl := time.Until(rt.ExpiresAt)
	if ttl <= 0 {
		ttl = c.ttl
	}
	_ = c.cache.Set(context.Background(), cacheKey(rt.JTI), true, ttl)
	return nil
}

// IsTokenRevoked answers from the cache, falling back to the store on miss.
func (c *CachedRevocationStore) IsTokenRevoked(jti string) (bool, error) {
	return cache.GetWithFetch(
		context.Background(),
		c.cache,
		cacheKey(jti),
		c.ttl,
		func(_ context.Context, _ string) (bool, error) {
			return c.store.IsTokenRevoked(jti)
		},
	)
}

func cacheKey(jti string) string {
	return "revoked:" + jti
}
