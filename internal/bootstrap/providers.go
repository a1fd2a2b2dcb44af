package bootstrap

import (
	"log"

	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/config"
)

// initializeProviderRegistry registers the OAuth2 providers enabled in the
// configuration. A provider with missing credentials is skipped with a
// warning rather than registered half-configured.
func initializeProviderRegistry(cfg *config.Config) *auth.Registry {
	registry := auth.NewRegistry()

	if cfg.GoogleOAuthEnabled {
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			log.Println("Google OAuth enabled but client credentials missing, skipping")
		} else {
			registry.Register(auth.NewGoogleProvider(auth.OAuthProviderConfig{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.GoogleRedirectURL,
				Scopes:       cfg.GoogleScopes,
			}))
		}
	}

	if cfg.GitHubOAuthEnabled {
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			log.Println("GitHub OAuth enabled but client credentials missing, skipping")
		} else {
			registry.Register(auth.NewGitHubProvider(auth.OAuthProviderConfig{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  cfg.GitHubRedirectURL,
				Scopes:       cfg.GitHubScopes,
			}))
		}
	}

	if cfg.TwitterOAuthEnabled {
		if cfg.TwitterClientID == "" || cfg.TwitterClientSecret == "" {
			log.Println("Twitter OAuth enabled but client credentials missing, skipping")
		} else {
			registry.Register(auth.NewTwitterProvider(auth.OAuthProviderConfig{
				ClientID:     cfg.TwitterClientID,
				ClientSecret: cfg.TwitterClientSecret,
				RedirectURL:  cfg.TwitterRedirectURL,
				Scopes:       cfg.TwitterScopes,
			}))
		}
	}

	return registry
}

// logProvidersStatus logs which OAuth2 providers are available
func logProvidersStatus(registry *auth.Registry) {
	enabled := registry.Enabled()
	if len(enabled) == 0 {
		log.Println("OAuth2 providers: none (local login only)")
		return
	}
	for _, p := range enabled {
		log.Printf("OAuth2 provider enabled: %s", p.Slug())
	}
}
