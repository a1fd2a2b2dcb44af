package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authlink/authlink/internal/linker"
	"github.com/go-authlink/authlink/internal/middleware"
	"github.com/go-authlink/authlink/internal/services"
	"github.com/go-authlink/authlink/internal/token"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves registration, login, refresh, and logout.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Email    string `json:"email" binding:"required,email"`
}

// Register godoc
//
//	@Summary		Register a local account
//	@Description	Creates an account with a username/password login method and signs the caller in
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerRequest	true	"Registration payload"
//	@Success		201		{object}	services.AuthResult
//	@Failure		400		{object}	object{error=string}	"Malformed payload"
//	@Failure		409		{object}	object{error=string}	"Username or email already in use"
//	@Router			/api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
//
//	@Summary		Local login
//	@Description	Authenticates a username/password pair and returns a token pair
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	services.AuthResult
//	@Failure		401		{object}	object{error=string}	"Invalid credentials"
//	@Failure		403		{object}	object{error=string}	"Account disabled"
//	@Router			/api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.authService.LocalLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh godoc
//
//	@Summary		Refresh tokens
//	@Description	Rotates a refresh token into a new access/refresh pair; the presented token is revoked
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		refreshRequest	true	"Refresh token"
//	@Success		200		{object}	services.AuthResult
//	@Failure		401		{object}	object{error=string}	"Invalid, expired, or revoked token"
//	@Router			/api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout godoc
//
//	@Summary		Logout
//	@Description	Revokes the caller's access token and, if supplied, their refresh token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		logoutRequest	false	"Refresh token to revoke alongside the access token"
//	@Success		200		{object}	object{message=string}
//	@Router			/api/auth/logout [post]
//	@Security		BearerAuth
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	accessToken := middleware.BearerToken(c)
	if err := h.authService.Logout(c.Request.Context(), accessToken, req.RefreshToken); err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me godoc
//
//	@Summary		Current account
//	@Description	Returns the authenticated caller's account summary
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	services.AccountSummary
//	@Failure		401	{object}	object{error=string}
//	@Router			/api/auth/me [get]
//	@Security		BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	summary, err := h.authService.GetAccount(middleware.AccountID(c))
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// writeAuthError maps service errors onto HTTP responses. Token failures all
// collapse into one 401 body; the subtype is logged, never returned.
func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_disabled"})
	case errors.Is(err, services.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
	case errors.Is(err, linker.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username_taken"})
	case errors.Is(err, linker.ErrEmailCollision):
		c.JSON(http.StatusConflict, gin.H{"error": "email_in_use"})
	case errors.Is(err, linker.ErrProviderIdentityAlreadyBound):
		c.JSON(http.StatusConflict, gin.H{"error": "identity_already_bound"})
	case errors.Is(err, linker.ErrProviderAlreadyLinked):
		c.JSON(http.StatusConflict, gin.H{"error": "provider_already_linked"})
	case errors.Is(err, token.ErrTokenMalformed),
		errors.Is(err, token.ErrTokenExpired),
		errors.Is(err, token.ErrTokenBadSignature),
		errors.Is(err, token.ErrTokenRevoked),
		errors.Is(err, token.ErrNotRefreshToken):
		log.Printf("[HTTP] Token rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		log.Printf("[HTTP] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
