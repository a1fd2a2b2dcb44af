package metrics

import (
	"context"
	"time"

	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/store"
)

// metricsStore defines the interface for database operations needed by CacheWrapper.
// This interface allows for easier testing without requiring a full store.Store.
type metricsStore interface {
	CountRevokedTokens(tokenType string) (int64, error)
}

// CacheWrapper provides a read-through cache for metrics data.
// It queries the database on cache miss and updates the cache for subsequent requests.
type CacheWrapper struct {
	store metricsStore
	cache cache.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store *store.Store, cache cache.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// GetRevokedTokensCount retrieves the number of live blacklist entries for a
// token type, using the cache-aside pattern.
func (m *CacheWrapper) GetRevokedTokensCount(
	ctx context.Context,
	tokenType string,
	ttl time.Duration,
) (int64, error) {
	return cache.GetWithFetch(
		ctx,
		m.cache,
		"revocations:"+tokenType,
		ttl,
		func(ctx context.Context, key string) (int64, error) {
			return m.store.CountRevokedTokens(tokenType)
		},
	)
}
