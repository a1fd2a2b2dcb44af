package handlers

import (
	"log"
	"net/http"

	"github.com/go-authlink/authlink/internal/keys"
	"github.com/go-authlink/authlink/internal/token"

	"github.com/gin-gonic/gin"
)

// OIDCHandler exposes the signing-key discovery document and token
// introspection.
type OIDCHandler struct {
	keys   *keys.Manager
	tokens *token.Service
}

// NewOIDCHandler creates a new OIDCHandler.
func NewOIDCHandler(km *keys.Manager, tokens *token.Service) *OIDCHandler {
	return &OIDCHandler{keys: km, tokens: tokens}
}

// JWKS godoc
//
//	@Summary		JSON Web Key Set
//	@Description	Publishes the RSA public key used to verify issued tokens, keyed by kid
//	@Tags			OIDC
//	@Produce		json
//	@Success		200	{object}	keys.JWKSet
//	@Router			/.well-known/jwks.json [get]
func (h *OIDCHandler) JWKS(c *gin.Context) {
	set, err := h.keys.JWKS()
	if err != nil {
		log.Printf("[OIDC] Failed to build JWKS: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, set)
}

type introspectRequest struct {
	Token string `json:"token" form:"token" binding:"required"`
}

// Introspect godoc
//
//	@Summary		Token introspection
//	@Description	Reports whether a token is active and, if so, its claims; inactive tokens yield only active=false
//	@Tags			OIDC
//	@Accept			json
//	@Produce		json
//	@Param			request	body		introspectRequest	true	"Token to inspect"
//	@Success		200		{object}	token.Introspection
//	@Failure		400		{object}	object{error=string}
//	@Router			/api/auth/introspect [post]
func (h *OIDCHandler) Introspect(c *gin.Context) {
	var req introspectRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	c.JSON(http.StatusOK, h.tokens.Introspect(req.Token))
}
