package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authlink/authlink/internal/linker"
	"github.com/go-authlink/authlink/internal/middleware"
	"github.com/go-authlink/authlink/internal/services"
	"github.com/go-authlink/authlink/internal/store"

	"github.com/gin-gonic/gin"
)

// MethodsHandler serves login-method management for the authenticated
// account.
type MethodsHandler struct {
	methods *services.MethodService
}

// NewMethodsHandler creates a new MethodsHandler.
func NewMethodsHandler(ms *services.MethodService) *MethodsHandler {
	return &MethodsHandler{methods: ms}
}

// List godoc
//
//	@Summary		List login methods
//	@Description	Lists the caller's login methods, oldest first
//	@Tags			Methods
//	@Produce		json
//	@Success		200	{array}	services.LoginMethodSummary
//	@Router			/api/auth/methods [get]
//	@Security		BearerAuth
func (h *MethodsHandler) List(c *gin.Context) {
	methods, err := h.methods.List(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		writeMethodError(c, err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

type addLocalRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// AddLocal godoc
//
//	@Summary		Add a local login method
//	@Description	Attaches a username/password method to the caller's account
//	@Tags			Methods
//	@Accept			json
//	@Produce		json
//	@Param			request	body		addLocalRequest	true	"Local credentials"
//	@Success		201		{object}	services.LoginMethodSummary
//	@Failure		409		{object}	object{error=string}	"Username taken or local method exists"
//	@Router			/api/auth/methods/local [post]
//	@Security		BearerAuth
func (h *MethodsHandler) AddLocal(c *gin.Context) {
	var req addLocalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	summary, err := h.methods.AddLocal(
		c.Request.Context(),
		middleware.AccountID(c),
		req.Username,
		req.Password,
	)
	if err != nil {
		writeMethodError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// Remove godoc
//
//	@Summary		Remove a login method
//	@Description	Deletes a login method; the last remaining method cannot be removed
//	@Tags			Methods
//	@Produce		json
//	@Param			id	path		string	true	"Method ID"
//	@Success		200	{object}	object{message=string}
//	@Failure		404	{object}	object{error=string}	"Unknown method"
//	@Failure		403	{object}	object{error=string}	"Method belongs to another account"
//	@Failure		409	{object}	object{error=string}	"Last remaining method"
//	@Router			/api/auth/methods/{id} [delete]
//	@Security		BearerAuth
func (h *MethodsHandler) Remove(c *gin.Context) {
	err := h.methods.Remove(c.Request.Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		writeMethodError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "method removed"})
}

// SetPrimary godoc
//
//	@Summary		Set the primary login method
//	@Description	Promotes a method to primary; the previous primary is demoted in the same transaction
//	@Tags			Methods
//	@Produce		json
//	@Param			id	path		string	true	"Method ID"
//	@Success		200	{object}	object{message=string}
//	@Failure		404	{object}	object{error=string}	"Unknown method"
//	@Failure		403	{object}	object{error=string}	"Method belongs to another account"
//	@Router			/api/auth/methods/{id}/primary [put]
//	@Security		BearerAuth
func (h *MethodsHandler) SetPrimary(c *gin.Context) {
	err := h.methods.SetPrimary(c.Request.Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		writeMethodError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "primary method updated"})
}

func writeMethodError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "method_not_found"})
	case errors.Is(err, store.ErrMethodNotOwned):
		c.JSON(http.StatusForbidden, gin.H{"error": "method_not_owned"})
	case errors.Is(err, store.ErrLastLoginMethodRemoval):
		c.JSON(http.StatusConflict, gin.H{"error": "last_login_method"})
	case errors.Is(err, linker.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username_taken"})
	case errors.Is(err, linker.ErrProviderAlreadyLinked):
		c.JSON(http.StatusConflict, gin.H{"error": "provider_already_linked"})
	case errors.Is(err, linker.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
	default:
		writeAuthError(c, err)
	}
}
