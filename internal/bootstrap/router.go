package bootstrap

import (
	"log"
	"net/http"

	"github.com/go-authlink/authlink/internal/config"
	"github.com/go-authlink/authlink/internal/core"
	"github.com/go-authlink/authlink/internal/metrics"
	"github.com/go-authlink/authlink/internal/middleware"
	"github.com/go-authlink/authlink/internal/store"
	"github.com/go-authlink/authlink/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	tokens *token.Service,
	recorder core.Recorder,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.IPMiddleware())

	// Health check endpoint
	r.GET("/healthz", createHealthCheckHandler(db))

	// Metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Key discovery
	r.GET("/.well-known/jwks.json", h.oidc.JWKS)

	// Public auth routes
	api := r.Group("/api/auth")
	{
		api.POST("/register", h.auth.Register)
		api.POST("/login", h.auth.Login)
		api.POST("/refresh", h.auth.Refresh)
		api.POST("/introspect", h.oidc.Introspect)
		api.GET("/oauth2", h.oauth.Providers)
		api.GET("/oauth2/:provider", h.oauth.Authorize)
		api.GET("/oauth2/:provider/callback", h.oauth.Callback)
	}

	// Routes requiring a valid access token
	protected := api.Group("", middleware.RequireAuth(tokens))
	{
		protected.POST("/logout", h.auth.Logout)
		protected.GET("/me", h.auth.Me)
		protected.GET("/methods", h.methods.List)
		protected.POST("/methods/local", h.methods.AddLocal)
		protected.DELETE("/methods/:id", h.methods.Remove)
		protected.PUT("/methods/:id/primary", h.methods.SetPrimary)
	}

	logServerStartup(cfg)

	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	if !cfg.MetricsEnabled {
		log.Printf("Prometheus metrics disabled")
		return
	}
	log.Printf("Prometheus metrics enabled at /metrics")
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// createHealthCheckHandler creates health check endpoint handler
// healthCheck godoc
//
//	@Summary		Health check
//	@Description	Check server and database health status
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	object{status=string,database=string}	"Service is healthy"
//	@Failure		503	{object}	object{status=string,database=string}	"Service is unhealthy"
//	@Router			/healthz [get]
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Auth server starting on %s", cfg.ServerAddr)
	log.Printf("Issuer: %s", cfg.BaseURL)
	log.Printf("JWKS: %s/.well-known/jwks.json", cfg.BaseURL)
}
