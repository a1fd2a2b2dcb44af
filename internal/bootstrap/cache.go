package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/config"
	"github.com/go-authlink/authlink/internal/core"
	"github.com/go-authlink/authlink/internal/metrics"
)

const cacheInitTimeout = 10 * time.Second

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) core.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeCaches creates the revocation, OAuth2-state, and metrics caches
// on the configured driver. Each cache gets its own key prefix so a shared
// Redis instance keeps the namespaces apart.
func (app *Application) initializeCaches() error {
	cfg := app.Config

	revocations, err := newCache[bool](cfg, "authlink:revoked:")
	if err != nil {
		return fmt.Errorf("failed to initialize revocation cache: %w", err)
	}
	app.RevocationCache = revocations
	app.cacheClosers = append(app.cacheClosers, revocations.Close)

	states, err := newCache[string](cfg, "authlink:state:")
	if err != nil {
		return fmt.Errorf("failed to initialize state cache: %w", err)
	}
	app.StateCache = states
	app.cacheClosers = append(app.cacheClosers, states.Close)

	if cfg.MetricsEnabled {
		counts, err := newCache[int64](cfg, "authlink:metrics:")
		if err != nil {
			return fmt.Errorf("failed to initialize metrics cache: %w", err)
		}
		app.MetricsCache = counts
		app.cacheClosers = append(app.cacheClosers, counts.Close)
	}

	log.Printf("Cache driver: %s", cfg.CacheDriver)
	return nil
}

func newCache[T any](cfg *config.Config, keyPrefix string) (cache.Cache[T], error) {
	switch cfg.CacheDriver {
	case config.CacheDriverRedis:
		ctx, cancel := context.WithTimeout(context.Background(), cacheInitTimeout)
		defer cancel()
		return cache.NewRueidisCache[T](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			keyPrefix,
		)
	default: // memory
		return cache.NewMemoryCache[T](), nil
	}
}
