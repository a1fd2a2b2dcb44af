package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/cache"
	"github.com/go-authlink/authlink/internal/keys"
	"github.com/go-authlink/authlink/internal/linker"
	"github.com/go-authlink/authlink/internal/metrics"
	"github.com/go-authlink/authlink/internal/middleware"
	"github.com/go-authlink/authlink/internal/services"
	"github.com/go-authlink/authlink/internal/store"
	"github.com/go-authlink/authlink/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)

	km := keys.NewManager(filepath.Join(t.TempDir(), "signing.pem"), false)
	require.NoError(t, km.Load())

	recorder := metrics.NewNoopMetrics()
	tokens := token.NewService(km, s, s, token.Config{
		Issuer:   "http://localhost:8080",
		Audience: "authlink",
	}, recorder)

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	l := linker.New(s, recorder)
	authService := services.NewAuthService(s, l, tokens, hasher, recorder)
	methodService := services.NewMethodService(l, hasher)

	registry := auth.NewRegistry()
	registry.Register(auth.NewGitHubProvider(auth.OAuthProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/api/auth/oauth2/github/callback",
	}))

	authHandler := NewAuthHandler(authService)
	methodsHandler := NewMethodsHandler(methodService)
	oauthHandler := NewOAuthHandler(
		registry,
		authService,
		cache.NewMemoryCache[string](),
		time.Minute,
	)
	oidcHandler := NewOIDCHandler(km, tokens)

	r := gin.New()
	r.GET("/.well-known/jwks.json", oidcHandler.JWKS)

	api := r.Group("/api/auth")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/refresh", authHandler.Refresh)
	api.POST("/introspect", oidcHandler.Introspect)
	api.GET("/oauth2", oauthHandler.Providers)
	api.GET("/oauth2/:provider", oauthHandler.Authorize)
	api.GET("/oauth2/:provider/callback", oauthHandler.Callback)

	protected := api.Group("", middleware.RequireAuth(tokens))
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.GET("/methods", methodsHandler.List)
	protected.POST("/methods/local", methodsHandler.AddLocal)
	protected.DELETE("/methods/:id", methodsHandler.Remove)
	protected.PUT("/methods/:id/primary", methodsHandler.SetPrimary)

	return r
}

func doJSON(
	t *testing.T,
	r *gin.Engine,
	method, path, bearer string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAlice(t *testing.T, r *gin.Engine) *services.AuthResult {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"password": "s3cret-pass",
		"email":    "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result services.AuthResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return &result
}

func TestRegisterLoginAndMe(t *testing.T) {
	r := setupRouter(t)

	reg := registerAlice(t, r)
	assert.Equal(t, "Bearer", reg.TokenType)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)

	// Duplicate username conflicts.
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"password": "other-pass1",
		"email":    "alice2@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var login services.AuthResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = doJSON(t, r, http.MethodGet, "/api/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestLoginFailureStatuses(t *testing.T) {
	r := setupRouter(t)
	registerAlice(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid_credentials"}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "nobody",
		"password": "whatever-pw",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Missing fields never reach the service.
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	r := setupRouter(t)
	reg := registerAlice(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{
		"refresh_token": reg.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var refreshed services.AuthResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	// Replaying the rotated token yields the uniform 401.
	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{
		"refresh_token": reg.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())

	// An access token is not accepted as a refresh token, same body.
	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{
		"refresh_token": refreshed.AccessToken,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestLogoutRevokesSession(t *testing.T) {
	r := setupRouter(t)
	reg := registerAlice(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/logout", reg.AccessToken, gin.H{
		"refresh_token": reg.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/auth/me", reg.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh", "", gin.H{
		"refresh_token": reg.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMethodManagementOverHTTP(t *testing.T) {
	r := setupRouter(t)
	reg := registerAlice(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/auth/methods", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var methods []services.LoginMethodSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &methods))
	require.Len(t, methods, 1)
	assert.True(t, methods[0].IsPrimary)

	// A second local method on the same account is rejected.
	w = doJSON(t, r, http.MethodPost, "/api/auth/methods/local", reg.AccessToken, gin.H{
		"username": "alice2",
		"password": "another-pw1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Removing the only method is rejected.
	w = doJSON(
		t, r, http.MethodDelete,
		"/api/auth/methods/"+methods[0].ID, reg.AccessToken, nil,
	)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"last_login_method"}`, w.Body.String())

	w = doJSON(
		t, r, http.MethodPut,
		"/api/auth/methods/unknown-id/primary", reg.AccessToken, nil,
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOAuthAuthorizeRedirect(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/oauth2/github", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.Contains(t, location, "github.com")
	assert.Contains(t, location, "client_id=test-client")
	assert.Contains(t, location, "state=")
}

func TestOAuthProviderErrors(t *testing.T) {
	r := setupRouter(t)

	// Never-configured provider.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/oauth2/google", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// LOCAL is not an OAuth2 provider.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/oauth2/local", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Callback with a state the server never issued.
	req = httptest.NewRequest(
		http.MethodGet,
		"/api/auth/oauth2/github/callback?code=abc&state=forged",
		nil,
	)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid_state"}`, w.Body.String())

	// Upstream denial is surfaced as a 400.
	req = httptest.NewRequest(
		http.MethodGet,
		"/api/auth/oauth2/github/callback?error=access_denied",
		nil,
	)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProvidersList(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/oauth2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"providers":["github"]}`, w.Body.String())
}

func TestJWKSEndpoint(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var set keys.JWKSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "RSA", set.Keys[0].Kty)
	assert.Equal(t, "RS256", set.Keys[0].Alg)
	assert.NotEmpty(t, set.Keys[0].Kid)
}

func TestIntrospectEndpoint(t *testing.T) {
	r := setupRouter(t)
	reg := registerAlice(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/introspect", "", gin.H{
		"token": reg.AccessToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var info token.Introspection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.True(t, info.Active)
	assert.Equal(t, "access", info.TokenType)
	assert.Equal(t, "alice", info.Subject)

	w = doJSON(t, r, http.MethodPost, "/api/auth/introspect", "", gin.H{
		"token": "not-a-jwt",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active":false}`, w.Body.String())
}
