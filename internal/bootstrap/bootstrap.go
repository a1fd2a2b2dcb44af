package bootstrap

import (
	"net/http"

	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/config"
	"github.com/go-authlink/authlink/internal/core"
	"github.com/go-authlink/authlink/internal/keys"
	"github.com/go-authlink/authlink/internal/linker"
	"github.com/go-authlink/authlink/internal/services"
	"github.com/go-authlink/authlink/internal/store"
	"github.com/go-authlink/authlink/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	Keys            *keys.Manager
	MetricsRecorder core.Recorder
	RevocationCache cache.Cache[bool]
	StateCache      cache.Cache[string]
	MetricsCache    cache.Cache[int64]
	cacheClosers    []func() error

	// Business layer
	TokenService  *token.Service
	Linker        *linker.Linker
	AuthService   *services.AuthService
	MethodService *services.MethodService
	Providers     *auth.Registry

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 2: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 3: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 4: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, signing keys, metrics, and caches
func (app *Application) initializeInfrastructure() error {
	var err error

	// Database
	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	// Signing keys
	app.Keys, err = initializeKeys(app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)

	// Caches
	if err := app.initializeCaches(); err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up the token service, linker, and services
func (app *Application) initializeBusinessLayer() {
	app.TokenService = initializeTokenService(
		app.Config,
		app.Keys,
		app.DB,
		app.RevocationCache,
		app.MetricsRecorder,
	)

	app.Linker = linker.New(app.DB, app.MetricsRecorder)

	app.AuthService, app.MethodService = initializeServices(
		app.Config,
		app.DB,
		app.Linker,
		app.TokenService,
		app.MetricsRecorder,
	)

	app.Providers = initializeProviderRegistry(app.Config)
	logProvidersStatus(app.Providers)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.Keys,
		app.TokenService,
		app.AuthService,
		app.MethodService,
		app.Providers,
		app.StateCache,
	)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.TokenService,
		app.MetricsRecorder,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addRevocationPruneJob(m, app.Config, app.DB, app.MetricsRecorder)
	addRevocationGaugeJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addCacheCleanupJob(m, app.cacheClosers)

	// Wait for graceful shutdown
	<-m.Done()
}
