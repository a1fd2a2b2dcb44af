package bootstrap

import (
	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/config"
	"github.com/go-authlink/authlink/internal/core"
	"github.com/go-authlink/authlink/internal/keys"
	"github.com/go-authlink/authlink/internal/linker"
	"github.com/go-authlink/authlink/internal/services"
	"github.com/go-authlink/authlink/internal/store"
	"github.com/go-authlink/authlink/internal/token"
)

// initializeTokenService builds the token service on top of the cached
// revocation blacklist
func initializeTokenService(
	cfg *config.Config,
	km *keys.Manager,
	db *store.Store,
	revocationCache cache.Cache[bool],
	recorder core.Recorder,
) *token.Service {
	revocations := token.NewCachedRevocationStore(db, revocationCache, cfg.RevocationCacheTTL)

	return token.NewService(km, revocations, db, token.Config{
		Issuer:                 cfg.BaseURL,
		Audience:               cfg.Audience,
		AccessTokenExpiration:  cfg.AccessTokenExpiration,
		RefreshTokenExpiration: cfg.RefreshTokenExpiration,
	}, recorder)
}

// initializeServices creates the business services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	l *linker.Linker,
	tokens *token.Service,
	recorder core.Recorder,
) (*services.AuthService, *services.MethodService) {
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	authService := services.NewAuthService(db, l, tokens, hasher, recorder)
	methodService := services.NewMethodService(l, hasher)

	return authService, methodService
}
