package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/go-authlink/authlink/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledReturnsNoop(t *testing.T) {
	rec := Init(false)
	_, ok := rec.(*NoopMetrics)
	assert.True(t, ok)
}

func TestInitEnabledReturnsSingleton(t *testing.T) {
	first := Init(true)
	second := Init(true)
	assert.Same(t, first, second)
}

func TestRecorderMethodsDoNotPanic(t *testing.T) {
	rec := Init(true)

	rec.RecordLogin("local", true)
	rec.RecordLogin("google", false)
	rec.RecordRegistration(true)
	rec.RecordLogout()
	rec.RecordOAuthCallback("github", true)
	rec.RecordLinkDecision("google", "bind")
	rec.RecordMethodMutation("set_primary", true)
	rec.RecordTokenIssued("access", time.Millisecond)
	rec.RecordTokenValidation("valid", time.Millisecond)
	rec.RecordTokenRefresh(true)
	rec.RecordTokenRevoked("refresh", "rotation")
	rec.RecordRevocationPrune(3)
}

func TestNoopMethodsDoNotPanic(t *testing.T) {
	rec := NewNoopMetrics()

	rec.RecordLogin("local", true)
	rec.RecordTokenIssued("access", time.Millisecond)
	rec.RecordRevocationPrune(0)
}

type fakeMetricsStore struct {
	calls int
	count int64
}

func (f *fakeMetricsStore) CountRevokedTokens(tokenType string) (int64, error) {
	f.calls++
	return f.count, nil
}

func TestCacheWrapperCachesCounts(t *testing.T) {
	fake := &fakeMetricsStore{count: 7}
	wrapper := &CacheWrapper{
		store: fake,
		cache: cache.NewMemoryCache[int64](),
	}

	ctx := context.Background()

	n, err := wrapper.GetRevokedTokensCount(ctx, "refresh", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, 1, fake.calls)

	// Second read within the TTL is served from cache.
	n, err = wrapper.GetRevokedTokensCount(ctx, "refresh", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, 1, fake.calls)
}
