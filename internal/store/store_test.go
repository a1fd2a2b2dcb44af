package store

import (
	"testing"
	"time"

	"github.com/go-authlink/authlink/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("sqlite", ":memory:")
	require.NoError(t, err)
	return s
}

func ptr(s string) *string { return &s }

func newTestAccount() *models.Account {
	id := uuid.New().String()
	return &models.Account{
		ID:       id,
		Username: "user-" + id[:8],
		Email:    "user-" + id[:8] + "@example.com",
	}
}

func newLocalMethod(username string) *models.LoginMethod {
	return &models.LoginMethod{
		ID:                uuid.New().String(),
		Provider:          models.ProviderLocal,
		LocalUsername:     ptr(username),
		LocalPasswordHash: "$2a$10$notarealhash",
	}
}

func newOAuthMethod(provider models.Provider, subject string) *models.LoginMethod {
	return &models.LoginMethod{
		ID:             uuid.New().String(),
		Provider:       provider,
		ProviderUserID: ptr(subject),
		ProviderEmail:  subject + "@" + provider.Slug() + ".example.com",
	}
}

func TestCreateAccountWithMethod(t *testing.T) {
	s := setupTestStore(t)

	a := newTestAccount()
	m := newLocalMethod("alice")
	m.IsPrimary = false // store forces the first method primary
	require.NoError(t, s.CreateAccountWithMethod(a, m))

	got, err := s.GetAccountByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Username, got.Username)
	assert.Equal(t, models.DefaultAuthority, got.Authorities)
	assert.True(t, got.Enabled)

	methods, err := s.ListLoginMethods(a.ID)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.True(t, methods[0].IsPrimary)
	assert.Equal(t, models.ProviderLocal, methods[0].Provider)
}

func TestGetAccountNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetAccountByID(uuid.New().String())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = s.GetAccountByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLocalUsernameUnique(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.CreateAccountWithMethod(newTestAccount(), newLocalMethod("alice")))

	err := s.CreateAccountWithMethod(newTestAccount(), newLocalMethod("alice"))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestProviderIdentityUnique(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.CreateAccountWithMethod(
		newTestAccount(), newOAuthMethod(models.ProviderGoogle, "g-123")))

	err := s.CreateAccountWithMethod(
		newTestAccount(), newOAuthMethod(models.ProviderGoogle, "g-123"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// Same subject under a different provider is a distinct identity.
	require.NoError(t, s.CreateAccountWithMethod(
		newTestAccount(), newOAuthMethod(models.ProviderGitHub, "g-123")))
}

func TestLocalMethodsDoNotCollideOnNullSubject(t *testing.T) {
	s := setupTestStore(t)

	// ProviderUserID is NULL for LOCAL rows, so the (provider, subject)
	// index must not fire across accounts.
	require.NoError(t, s.CreateAccountWithMethod(newTestAccount(), newLocalMethod("alice")))
	require.NoError(t, s.CreateAccountWithMethod(newTestAccount(), newLocalMethod("bob")))
}

func TestOneMethodPerProviderPerAccount(t *testing.T) {
	s := setupTestStore(t)

	a := newTestAccount()
	require.NoError(t, s.CreateAccountWithMethod(a, newOAuthMethod(models.ProviderGoogle, "g-1")))

	second := newOAuthMethod(models.ProviderGoogle, "g-2")
	second.AccountID = a.ID
	err := s.CreateLoginMethod(second)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestGetLoginMethodByProviderIdentity(t *testing.T) {
	s := setupTestStore(t)

	a := newTestAccount()
	require.NoError(t, s.CreateAccountWithMethod(a, newOAuthMethod(models.ProviderGitHub, "gh-42")))

	m, err := s.GetLoginMethodByProviderIdentity(models.ProviderGitHub, "gh-42")
	require.NoError(t, err)
	assert.Equal(t, a.ID, m.AccountID)

	_, err = s.GetLoginMethodByProviderIdentity(models.ProviderGitHub, "gh-43")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSetPrimaryLoginMethod(t *testing.T) {
	s := setupTestStore(t)

	a := newTestAccount()
	local := newLocalMethod("carol")
	require.NoError(t, s.CreateAccountWithMethod(a, local))

	github := newOAuthMethod(models.ProviderGitHub, "gh-7")
	github.AccountID = a.ID
	require.NoError(t, s.CreateLoginMethod(github))

	require.NoError(t, s.SetPrimaryLoginMethod(a.ID, github.ID))

	methods, err := s.ListLoginMethods(a.ID)
	require.NoError(t, err)
	primaries := 0
	for _, m := range methods {
		if m.IsPrimary {
			primaries++
			assert.Equal(t, github.ID, m.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	// Promoting the current primary again is a no-op.
	require.NoError(t, s.SetPrimaryLoginMethod(a.ID, github.ID))
}

func TestSetPrimaryLoginMethodNotOwned(t *testing.T) {
	s := setupTestStore(t)

	a := newTestAccount()
	require.NoError(t, s.CreateAccountWithMethod(a, newLocalMethod("dave")))

	b := newTestAccount()
	other := newLocalMethod("erin")
	require.NoError(t, s.CreateAccountWithMethod(b, other))

	err := s.SetPrimaryLoginMethod(a.ID, other.ID)
	assert.ErrorIs(t, err, ErrMethodNotOwned)
}

func TestDeleteLastLoginMethodRejected(t *testing.T) {
	s := setupTestStore(t)

	a := newTestAccount()
	m := newLocalMethod("frank")
	require.NoError(t, s.CreateAccountWithMethod(a, m))

	err := s.DeleteLoginMethod(a.ID, m.ID)
	assert.ErrorIs(t, err, ErrLastLoginMethodRemoval)

	methods, err := s.ListLoginMethods(a.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestDeletePrimaryPromotesSibling(t *testing.T) {
	s := setupTestStore(t)

	a := newTestAccount()
	local := newLocalMethod("grace")
	local.LinkedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.CreateAccountWithMethod(a, local))

	google := newOAuthMethod(models.ProviderGoogle, "g-9")
	google.AccountID = a.ID
	require.NoError(t, s.CreateLoginMethod(google))

	require.NoError(t, s.DeleteLoginMethod(a.ID, local.ID))

	methods, err := s.ListLoginMethods(a.ID)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, google.ID, methods[0].ID)
	assert.True(t, methods[0].IsPrimary)
}

func TestDeleteLoginMethodNotOwned(t *testing.T) {
	s := setupTestStore(t)

	a := newTestAccount()
	require.NoError(t, s.CreateAccountWithMethod(a, newLocalMethod("heidi")))

	b := newTestAccount()
	other := newLocalMethod("ivan")
	require.NoError(t, s.CreateAccountWithMethod(b, other))

	err := s.DeleteLoginMethod(a.ID, other.ID)
	assert.ErrorIs(t, err, ErrMethodNotOwned)
}

func TestRevokeTokenIdempotent(t *testing.T) {
	s := setupTestStore(t)

	jti := uuid.New().String()
	rt := &models.RevokedToken{
		JTI:       jti,
		TokenType: models.TokenTypeRefresh,
		AccountID: uuid.New().String(),
		Reason:    "logout",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.RevokeToken(rt))
	require.NoError(t, s.RevokeToken(rt))

	revoked, err := s.IsTokenRevoked(jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsTokenRevoked(uuid.New().String())
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestDeleteExpiredRevocations(t *testing.T) {
	s := setupTestStore(t)

	expired := &models.RevokedToken{
		JTI:       uuid.New().String(),
		TokenType: models.TokenTypeAccess,
		AccountID: uuid.New().String(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	live := &models.RevokedToken{
		JTI:       uuid.New().String(),
		TokenType: models.TokenTypeRefresh,
		AccountID: uuid.New().String(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.RevokeToken(expired))
	require.NoError(t, s.RevokeToken(live))

	n, err := s.DeleteExpiredRevocations()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	revoked, err := s.IsTokenRevoked(live.JTI)
	require.NoError(t, err)
	assert.True(t, revoked)
}
