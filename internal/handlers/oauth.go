package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/middleware"
	"github.com/go-authlink/authlink/internal/models"
	"github.com/go-authlink/authlink/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const stateKeyPrefix = "oauth2:state:"

// OAuthHandler drives the OAuth2 authorization-code flow against the
// configured providers. The state parameter is a one-time value held in the
// cache; its stored value is the caller's access token at authorize time, so
// a logged-in caller's callback binds instead of creating a new account.
type OAuthHandler struct {
	registry    *auth.Registry
	authService *services.AuthService
	states      cache.Cache[string]
	stateTTL    time.Duration
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(
	registry *auth.Registry,
	as *services.AuthService,
	states cache.Cache[string],
	stateTTL time.Duration,
) *OAuthHandler {
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	return &OAuthHandler{
		registry:    registry,
		authService: as,
		states:      states,
		stateTTL:    stateTTL,
	}
}

// Authorize godoc
//
//	@Summary		Start an OAuth2 flow
//	@Description	Redirects to the provider's authorization page with a one-time state parameter
//	@Tags			OAuth2
//	@Param			provider	path	string	true	"Provider: google, github, or twitter"
//	@Success		302
//	@Failure		404	{object}	object{error=string}	"Unknown or unconfigured provider"
//	@Router			/api/auth/oauth2/{provider} [get]
func (h *OAuthHandler) Authorize(c *gin.Context) {
	provider, err := h.provider(c)
	if err != nil {
		return
	}

	state := uuid.New().String()
	callerToken := middleware.BearerToken(c)
	err = h.states.Set(c.Request.Context(), stateKeyPrefix+state, callerToken, h.stateTTL)
	if err != nil {
		log.Printf("[OAuth] Failed to store state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.Redirect(http.StatusFound, provider.GetAuthURL(state))
}

// Callback godoc
//
//	@Summary		OAuth2 callback
//	@Description	Exchanges the authorization code, resolves the identity against the account graph, and returns a token pair
//	@Tags			OAuth2
//	@Produce		json
//	@Param			provider	path		string	true	"Provider: google, github, or twitter"
//	@Param			code		query		string	true	"Authorization code"
//	@Param			state		query		string	true	"State from the authorize redirect"
//	@Success		200			{object}	services.AuthResult
//	@Failure		400			{object}	object{error=string}	"Missing code or unknown state"
//	@Failure		409			{object}	object{error=string}	"Identity bound to another account or email collision"
//	@Router			/api/auth/oauth2/{provider}/callback [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider, err := h.provider(c)
	if err != nil {
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		log.Printf("[OAuth] %s callback returned error: %s", provider.Provider().Slug(), errParam)
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider_denied"})
		return
	}

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	ctx := c.Request.Context()
	callerToken, err := h.states.Get(ctx, stateKeyPrefix+state)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}
	// The state is single-use.
	_ = h.states.Delete(ctx, stateKeyPrefix+state)

	oauthToken, err := provider.ExchangeCode(ctx, code)
	if err != nil {
		log.Printf("[OAuth] Code exchange failed for %s: %v", provider.Provider().Slug(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "code_exchange_failed"})
		return
	}

	identity, err := provider.FetchIdentity(ctx, oauthToken)
	if err != nil {
		log.Printf("[OAuth] Identity fetch failed for %s: %v", provider.Provider().Slug(), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity_fetch_failed"})
		return
	}

	result, err := h.authService.OAuth2Callback(ctx, identity, callerToken)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Providers godoc
//
//	@Summary		List enabled providers
//	@Tags			OAuth2
//	@Produce		json
//	@Success		200	{object}	object{providers=[]string}
//	@Router			/api/auth/oauth2 [get]
func (h *OAuthHandler) Providers(c *gin.Context) {
	enabled := h.registry.Enabled()
	slugs := make([]string, 0, len(enabled))
	for _, p := range enabled {
		slugs = append(slugs, p.Slug())
	}
	c.JSON(http.StatusOK, gin.H{"providers": slugs})
}

// provider resolves the :provider path parameter. It writes the error
// response itself so callers can just return.
func (h *OAuthHandler) provider(c *gin.Context) (*auth.OAuthProvider, error) {
	name, err := models.ParseProvider(c.Param("provider"))
	if err != nil || !name.IsOAuth2() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_provider"})
		return nil, models.ErrUnknownProvider
	}

	provider, err := h.registry.Get(name)
	if err != nil {
		if errors.Is(err, auth.ErrUnsupportedProvider) {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider_not_configured"})
			return nil, err
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return nil, err
	}
	return provider, nil
}
