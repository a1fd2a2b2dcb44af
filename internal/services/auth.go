// Package services composes the store, linker, and token service into the
// operations the HTTP layer calls.
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/core"
	"github.com/go-authlink/authlink/internal/linker"
	"github.com/go-authlink/authlink/internal/models"
	"github.com/go-authlink/authlink/internal/store"
	"github.com/go-authlink/authlink/internal/token"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAccountNotFound    = errors.New("account not found")
)

// AccountSummary is the client-facing view of an account.
type AccountSummary struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Authorities []string `json:"authorities"`
	Provider    string   `json:"provider,omitempty"` // primary method's provider
}

// AuthResult is the uniform success payload for login, callback, and
// refresh: who the caller is plus a fresh token pair.
type AuthResult struct {
	Account               *AccountSummary `json:"account"`
	AccessToken           string          `json:"access_token"`
	RefreshToken          string          `json:"refresh_token"`
	TokenType             string          `json:"token_type"`
	ExpiresIn             int64           `json:"expires_in"`
	RefreshTokenExpiresIn int64           `json:"refresh_token_expires_in"`
	Decision              string          `json:"decision,omitempty"` // login, bind, create
}

// AuthService is the orchestrator behind the auth endpoints.
type AuthService struct {
	store   *store.Store
	linker  *linker.Linker
	tokens  *token.Service
	hasher  auth.PasswordHasher
	metrics core.Recorder
}

// NewAuthService wires the orchestrator.
func NewAuthService(
	s *store.Store,
	l *linker.Linker,
	tokens *token.Service,
	hasher auth.PasswordHasher,
	recorder core.Recorder,
) *AuthService {
	return &AuthService{
		store:   s,
		linker:  l,
		tokens:  tokens,
		hasher:  hasher,
		metrics: recorder,
	}
}

// Register creates a new account with a LOCAL login method and signs the
// caller in.
func (s *AuthService) Register(
	ctx context.Context,
	username, password, email string,
) (*AuthResult, error) {
	if _, err := s.store.GetLoginMethodByLocalUsername(username); err == nil {
		s.metrics.RecordRegistration(false)
		return nil, linker.ErrUsernameTaken
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.store.GetAccountByEmail(email); err == nil {
		s.metrics.RecordRegistration(false)
		return nil, linker.ErrEmailCollision
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Enabled:  true,
	}
	method := &models.LoginMethod{
		ID:                uuid.New().String(),
		Provider:          models.ProviderLocal,
		LocalUsername:     &username,
		LocalPasswordHash: hash,
	}

	if err := s.store.CreateAccountWithMethod(account, method); err != nil {
		s.metrics.RecordRegistration(false)
		if errors.Is(err, store.ErrDuplicateKey) {
			// A concurrent registration won; report whichever constraint hit.
			if _, err := s.store.GetLoginMethodByLocalUsername(username); err == nil {
				return nil, linker.ErrUsernameTaken
			}
			return nil, linker.ErrEmailCollision
		}
		return nil, err
	}

	s.metrics.RecordRegistration(true)
	return s.finish(account, linker.DecisionCreate)
}

// LocalLogin authenticates a username/password pair. All lookup and verify
// failures collapse into ErrInvalidCredentials so the response does not leak
// which part was wrong.
func (s *AuthService) LocalLogin(
	ctx context.Context,
	username, password string,
) (*AuthResult, error) {
	method, err := s.store.GetLoginMethodByLocalUsername(username)
	if err != nil {
		s.metrics.RecordLogin("local", false)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Verify(method.LocalPasswordHash, password); err != nil {
		s.metrics.RecordLogin("local", false)
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.GetAccountByID(method.AccountID)
	if err != nil {
		s.metrics.RecordLogin("local", false)
		return nil, ErrInvalidCredentials
	}
	if !account.Enabled {
		s.metrics.RecordLogin("local", false)
		return nil, ErrAccountDisabled
	}

	s.touch(account.ID, method.ID)
	s.metrics.RecordLogin("local", true)
	return s.finish(account, "")
}

// OAuth2Callback completes an OAuth2 flow for a provider-verified identity.
// callerAccessToken is the caller's presented access token, if any; an
// invalid token is treated the same as no token.
func (s *AuthService) OAuth2Callback(
	ctx context.Context,
	identity *models.ProviderIdentity,
	callerAccessToken string,
) (*AuthResult, error) {
	callerAccountID := ""
	if callerAccessToken != "" {
		claims, err := s.tokens.VerifyAccessToken(callerAccessToken)
		if err == nil {
			callerAccountID = claims.AccountID
		} else {
			log.Printf("[Auth] Ignoring invalid caller token on %s callback: %v",
				identity.Provider.Slug(), err)
		}
	}

	res, err := s.linker.Resolve(identity, callerAccountID)
	if err != nil {
		s.metrics.RecordOAuthCallback(identity.Provider.Slug(), false)
		return nil, err
	}
	if !res.Account.Enabled {
		s.metrics.RecordOAuthCallback(identity.Provider.Slug(), false)
		return nil, ErrAccountDisabled
	}

	s.touch(res.Account.ID, res.Method.ID)
	s.metrics.RecordOAuthCallback(identity.Provider.Slug(), true)
	return s.finish(res.Account, res.Decision)
}

// Refresh rotates a refresh token into a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	pair, account, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrAccountNotFound):
			return nil, ErrAccountNotFound
		case errors.Is(err, token.ErrAccountDisabled):
			return nil, ErrAccountDisabled
		default:
			return nil, err
		}
	}
	return s.result(account, pair, ""), nil
}

// Logout revokes both presented tokens. Tokens that are already expired or
// revoked are skipped silently; logout never fails for a token that can no
// longer be used anyway.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	for _, t := range []struct{ value, kind string }{
		{accessToken, "access"},
		{refreshToken, "refresh"},
	} {
		if t.value == "" {
			continue
		}
		if err := s.tokens.Revoke(t.value, "logout"); err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				continue
			}
			return err
		}
	}
	s.metrics.RecordLogout()
	return nil
}

// GetAccount returns the summary view used by /api/auth/me.
func (s *AuthService) GetAccount(accountID string) (*AccountSummary, error) {
	account, err := s.store.GetAccountByID(accountID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.summarize(account), nil
}

// finish issues a token pair and assembles the success payload.
func (s *AuthService) finish(account *models.Account, decision string) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, err
	}
	return s.result(account, pair, decision), nil
}

func (s *AuthService) result(
	account *models.Account,
	pair *token.Pair,
	decision string,
) *AuthResult {
	return &AuthResult{
		Account:               s.summarize(account),
		AccessToken:           pair.Access.Token,
		RefreshToken:          pair.Refresh.Token,
		TokenType:             "Bearer",
		ExpiresIn:             pair.Access.ExpiresIn,
		RefreshTokenExpiresIn: pair.Refresh.ExpiresIn,
		Decision:              decision,
	}
}

func (s *AuthService) summarize(account *models.Account) *AccountSummary {
	summary := &AccountSummary{
		ID:          account.ID,
		Username:    account.Username,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		AvatarURL:   account.AvatarURL,
		Authorities: account.AuthorityList(),
	}

	methods, err := s.store.ListLoginMethods(account.ID)
	if err != nil {
		log.Printf("[Auth] Failed to list methods for account %s: %v", account.ID, err)
		return summary
	}
	for _, m := range methods {
		if m.IsPrimary {
			summary.Provider = m.Provider.Slug()
			break
		}
	}
	return summary
}

// touch records a successful authentication on the account and method.
func (s *AuthService) touch(accountID, methodID string) {
	now := time.Now()
	if err := s.store.TouchAccountLogin(accountID, now); err != nil {
		log.Printf("[Auth] Failed to touch account %s: %v", accountID, err)
	}
	if err := s.store.TouchLoginMethodUsed(methodID, now); err != nil {
		log.Printf("[Auth] Failed to touch method %s: %v", methodID, err)
	}
}
