// Package token issues, verifies, refreshes, and revokes the RS256 JWTs
// used for API access.
package token

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-authlink/authlink/internal/core"
	"github.com/go-authlink/authlink/internal/keys"
	"github.com/go-authlink/authlink/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RevocationStore records revoked jtis and answers lookups against them.
// *store.Store satisfies it; CachedRevocationStore wraps it with a cache.
type RevocationStore interface {
	RevokeToken(rt *models.RevokedToken) error
	IsTokenRevoked(jti string) (bool, error)
}

// AccountResolver re-resolves the account behind a refresh token so rotation
// picks up authority and enabled-flag changes.
type AccountResolver interface {
	GetAccountByID(id string) (*models.Account, error)
}

// Config carries the issuance parameters.
type Config struct {
	Issuer                 string
	Audience               string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
}

// Service signs and validates tokens with the key pair owned by keys.Manager.
type Service struct {
	keys        *keys.Manager
	revocations RevocationStore
	accounts    AccountResolver
	cfg         Config
	metrics     core.Recorder
}

// NewService wires the token service. Zero expirations fall back to 1h
// access / 7d refresh.
func NewService(
	km *keys.Manager,
	revocations RevocationStore,
	accounts AccountResolver,
	cfg Config,
	recorder core.Recorder,
) *Service {
	if cfg.AccessTokenExpiration <= 0 {
		cfg.AccessTokenExpiration = time.Hour
	}
	if cfg.RefreshTokenExpiration <= 0 {
		cfg.RefreshTokenExpiration = 7 * 24 * time.Hour
	}
	return &Service{
		keys:        km,
		revocations: revocations,
		accounts:    accounts,
		cfg:         cfg,
		metrics:     recorder,
	}
}

// IssueAccessToken signs a 1h access token for the account.
func (s *Service) IssueAccessToken(a *models.Account) (*IssuedToken, error) {
	return s.issue(a, models.TokenTypeAccess, s.cfg.AccessTokenExpiration)
}

// IssueRefreshToken signs a 7d refresh token for the account.
func (s *Service) IssueRefreshToken(a *models.Account) (*IssuedToken, error) {
	return s.issue(a, models.TokenTypeRefresh, s.cfg.RefreshTokenExpiration)
}

// IssuePair signs a matched access/refresh pair, as returned on login and
// rotation.
func (s *Service) IssuePair(a *models.Account) (*Pair, error) {
	access, err := s.IssueAccessToken(a)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(a)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}

func (s *Service) issue(
	a *models.Account,
	tokenType string,
	ttl time.Duration,
) (*IssuedToken, error) {
	start := time.Now()

	key, err := s.keys.Private()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	jti := uuid.New().String()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   a.Username,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		AccountID: a.ID,
		TokenType: tokenType,
	}
	if tokenType == models.TokenTypeAccess {
		claims.Email = a.Email
		claims.Authorities = a.AuthorityList()
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.keys.KID()

	signed, err := tok.SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	s.metrics.RecordTokenIssued(tokenType, time.Since(start))

	return &IssuedToken{
		Token:     signed,
		JTI:       jti,
		TokenType: tokenType,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(ttl.Seconds()),
	}, nil
}

// Verify parses and validates a token of the expected type. The error is
// always one of the package sentinels so callers can branch on failure kind
// without string matching.
func (s *Service) Verify(tokenString, expectedType string) (*Claims, error) {
	start := time.Now()
	claims, err := s.verify(tokenString, expectedType)
	s.metrics.RecordTokenValidation(validationResult(err), time.Since(start))
	return claims, err
}

func (s *Service) verify(tokenString, expectedType string) (*Claims, error) {
	pub, err := s.keys.Public()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pub, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenBadSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	if claims.TokenType != expectedType {
		if expectedType == models.TokenTypeRefresh {
			return nil, ErrNotRefreshToken
		}
		return nil, fmt.Errorf("%w: wrong token type %q", ErrTokenMalformed, claims.TokenType)
	}

	revoked, err := s.revocations.IsTokenRevoked(claims.ID)
	if err != nil {
		// Fail closed: an unanswerable blacklist means the token cannot be
		// trusted.
		log.Printf("[Token] Revocation lookup failed for jti %s: %v", claims.ID, err)
		return nil, ErrTokenRevoked
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// VerifyAccessToken validates an access token.
func (s *Service) VerifyAccessToken(tokenString string) (*Claims, error) {
	return s.Verify(tokenString, models.TokenTypeAccess)
}

// Refresh rotates a refresh token: the presented token is verified,
// revoked, and replaced by a new access/refresh pair. A replayed refresh
// token fails with ErrTokenRevoked.
func (s *Service) Refresh(refreshToken string) (*Pair, *models.Account, error) {
	claims, err := s.Verify(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		return nil, nil, err
	}

	account, err := s.accounts.GetAccountByID(claims.AccountID)
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		return nil, nil, fmt.Errorf("%w: %s", ErrAccountNotFound, claims.AccountID)
	}
	if !account.Enabled {
		s.metrics.RecordTokenRefresh(false)
		return nil, nil, ErrAccountDisabled
	}

	// Revoke before issuing so a crash between the two steps never leaves
	// both the old and new refresh tokens live.
	if err := s.revoke(claims, models.TokenTypeRefresh, "rotation"); err != nil {
		s.metrics.RecordTokenRefresh(false)
		return nil, nil, err
	}

	pair, err := s.IssuePair(account)
	if err != nil {
		s.metrics.RecordTokenRefresh(false)
		return nil, nil, err
	}

	s.metrics.RecordTokenRefresh(true)
	return pair, account, nil
}

// Revoke blacklists a verified token. Expired and malformed tokens are
// reported as such; revoking an already revoked token succeeds silently.
func (s *Service) Revoke(tokenString, reason string) error {
	claims, err := s.parseForRevocation(tokenString)
	if err != nil {
		return err
	}
	return s.revoke(claims, claims.TokenType, reason)
}

// parseForRevocation validates signature and expiry but accepts an already
// revoked token, so logout is idempotent.
func (s *Service) parseForRevocation(tokenString string) (*Claims, error) {
	pub, err := s.keys.Public()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return pub, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenBadSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	return claims, nil
}

func (s *Service) revoke(claims *Claims, tokenType, reason string) error {
	rt := &models.RevokedToken{
		JTI:       claims.ID,
		TokenType: tokenType,
		AccountID: claims.AccountID,
		Reason:    reason,
	}
	if claims.ExpiresAt != nil {
		rt.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := s.revocations.RevokeToken(rt); err != nil {
		return fmt.Errorf("revoke token %s: %w", claims.ID, err)
	}
	s.metrics.RecordTokenRevoked(tokenType, reason)
	return nil
}

// Introspect reports the state of a token without requiring it to be valid.
// Any verification failure yields {active: false}.
func (s *Service) Introspect(tokenString string) *Introspection {
	claims, err := s.parseForRevocation(tokenString)
	if err != nil {
		return &Introspection{Active: false}
	}

	revoked, err := s.revocations.IsTokenRevoked(claims.ID)
	if err != nil || revoked {
		return &Introspection{Active: false}
	}

	out := &Introspection{
		Active:      true,
		TokenType:   claims.TokenType,
		Subject:     claims.Subject,
		AccountID:   claims.AccountID,
		Email:       claims.Email,
		Authorities: claims.Authorities,
		Issuer:      claims.Issuer,
		Audience:    claims.Audience,
		JTI:         claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	return out
}

func validationResult(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, ErrTokenBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrNotRefreshToken):
		return "wrong_type"
	default:
		return "malformed"
	}
}
