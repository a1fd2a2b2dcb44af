package bootstrap

import (
	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/config"
	"github.com/go-authlink/authlink/internal/handlers"
	"github.com/go-authlink/authlink/internal/keys"
	"github.com/go-authlink/authlink/internal/services"
	"github.com/go-authlink/authlink/internal/token"
)

// handlerSet groups the HTTP handlers wired into the router
type handlerSet struct {
	auth    *handlers.AuthHandler
	methods *handlers.MethodsHandler
	oauth   *handlers.OAuthHandler
	oidc    *handlers.OIDCHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	km *keys.Manager,
	tokens *token.Service,
	authService *services.AuthService,
	methodService *services.MethodService,
	providers *auth.Registry,
	stateCache cache.Cache[string],
) handlerSet {
	return handlerSet{
		auth:    handlers.NewAuthHandler(authService),
		methods: handlers.NewMethodsHandler(methodService),
		oauth: handlers.NewOAuthHandler(
			providers,
			authService,
			stateCache,
			cfg.OAuthStateTTL,
		),
		oidc: handlers.NewOIDCHandler(km, tokens),
	}
}
