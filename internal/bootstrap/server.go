package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/config"
	"github.com/go-authlink/authlink/internal/core"
	"github.com/go-authlink/authlink/internal/metrics"
	"github.com/go-authlink/authlink/internal/models"
	"github.com/go-authlink/authlink/internal/store"

	"github.com/appleboy/graceful"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRevocationPruneJob adds the periodic blacklist maintenance job. Expired
// entries are dead weight: the tokens they match no longer verify anyway.
func addRevocationPruneJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder core.Recorder,
) {
	if cfg.RevocationPruneInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.RevocationPruneInterval)
		defer ticker.Stop()

		// Run once immediately on startup
		pruneRevocations(db, recorder)

		for {
			select {
			case <-ticker.C:
				pruneRevocations(db, recorder)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func pruneRevocations(db *store.Store, recorder core.Recorder) {
	deleted, err := db.DeleteExpiredRevocations()
	if err != nil {
		log.Printf("Failed to prune expired revocations: %v", err)
		return
	}
	recorder.RecordRevocationPrune(deleted)
	if deleted > 0 {
		log.Printf("Pruned %d expired revocations", deleted)
	}
}

// addRevocationGaugeJob adds the periodic blacklist gauge update job. The
// counts go through a cache so multiple instances do not hammer the database
// with the same query.
func addRevocationGaugeJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder core.Recorder,
	metricsCache cache.Cache[int64],
) {
	prometheusMetrics, ok := recorder.(*metrics.Metrics)
	if !ok || metricsCache == nil {
		return
	}

	interval := cfg.RevocationCacheTTL
	if interval < time.Minute {
		interval = time.Minute
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		wrapper := metrics.NewCacheWrapper(db, metricsCache)

		updateRevocationGauges(ctx, wrapper, prometheusMetrics, interval)

		for {
			select {
			case <-ticker.C:
				updateRevocationGauges(ctx, wrapper, prometheusMetrics, interval)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func updateRevocationGauges(
	ctx context.Context,
	wrapper *metrics.CacheWrapper,
	m *metrics.Metrics,
	cacheTTL time.Duration,
) {
	for _, tokenType := range []string{models.TokenTypeAccess, models.TokenTypeRefresh} {
		count, err := wrapper.GetRevokedTokensCount(ctx, tokenType, cacheTTL)
		if err != nil {
			log.Printf("Failed to count live revocations for %s tokens: %v", tokenType, err)
			continue
		}
		m.SetRevokedTokensLive(tokenType, count)
	}
}

// addCacheCleanupJob closes the caches on shutdown
func addCacheCleanupJob(m *graceful.Manager, closers []func() error) {
	if len(closers) == 0 {
		return
	}

	m.AddShutdownJob(func() error {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Printf("Error closing cache: %v", err)
			}
		}
		log.Println("Caches closed")
		return nil
	})
}
