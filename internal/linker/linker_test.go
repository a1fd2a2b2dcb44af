package linker

import (
	"testing"

	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/metrics"
	"github.com/go-authlink/authlink/internal/models"
	"github.com/go-authlink/authlink/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupLinker(t *testing.T) (*Linker, *store.Store) {
	t.Helper()
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	return New(s, metrics.NewNoopMetrics()), s
}

func googleIdentity(subject, email string) *models.ProviderIdentity {
	return &models.ProviderIdentity{
		Provider:       models.ProviderGoogle,
		ProviderUserID: subject,
		Email:          email,
		Username:       email,
		DisplayName:    "Some User",
		AvatarURL:      "https://example.com/avatar.png",
	}
}

func createLocalAccount(t *testing.T, s *store.Store, username, email string) *models.Account {
	t.Helper()
	a := &models.Account{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Enabled:  true,
	}
	m := &models.LoginMethod{
		ID:                uuid.New().String(),
		Provider:          models.ProviderLocal,
		LocalUsername:     &username,
		LocalPasswordHash: "$2a$04$notarealhash",
	}
	require.NoError(t, s.CreateAccountWithMethod(a, m))
	return a
}

func TestResolveFirstSightCreatesAccount(t *testing.T) {
	l, s := setupLinker(t)

	res, err := l.Resolve(googleIdentity("g123", "new@example.com"), "")
	require.NoError(t, err)
	assert.Equal(t, DecisionCreate, res.Decision)
	assert.Equal(t, "new@example.com", res.Account.Email)
	assert.Equal(t, "new@example.com", res.Account.Username)
	assert.True(t, res.Account.EmailVerified)

	methods, err := s.ListLoginMethods(res.Account.ID)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.True(t, methods[0].IsPrimary)
	assert.True(t, methods[0].IsVerified)
	assert.Equal(t, models.ProviderGoogle, methods[0].Provider)
}

func TestResolveRepeatLoginIsIdempotent(t *testing.T) {
	l, s := setupLinker(t)

	first, err := l.Resolve(googleIdentity("g123", "new@example.com"), "")
	require.NoError(t, err)

	second, err := l.Resolve(googleIdentity("g123", "new@example.com"), "")
	require.NoError(t, err)
	assert.Equal(t, DecisionLogin, second.Decision)
	assert.Equal(t, first.Account.ID, second.Account.ID)

	methods, err := s.ListLoginMethods(first.Account.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestResolveBoundIdentityWithOwnSession(t *testing.T) {
	l, _ := setupLinker(t)

	created, err := l.Resolve(googleIdentity("g123", "new@example.com"), "")
	require.NoError(t, err)

	res, err := l.Resolve(googleIdentity("g123", "new@example.com"), created.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, DecisionLogin, res.Decision)
}

func TestResolveBoundIdentityWithOtherSessionRejected(t *testing.T) {
	l, s := setupLinker(t)

	_, err := l.Resolve(googleIdentity("g123", "owner@example.com"), "")
	require.NoError(t, err)

	other := createLocalAccount(t, s, "other", "other@example.com")

	_, err = l.Resolve(googleIdentity("g123", "owner@example.com"), other.ID)
	assert.ErrorIs(t, err, ErrProviderIdentityAlreadyBound)

	// The rejected caller must gain no method.
	methods, err := s.ListLoginMethods(other.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestResolveBindsToCallerAccount(t *testing.T) {
	l, s := setupLinker(t)

	caller := createLocalAccount(t, s, "alice", "alice@example.com")

	res, err := l.Resolve(googleIdentity("g999", "alice.g@example.com"), caller.ID)
	require.NoError(t, err)
	assert.Equal(t, DecisionBind, res.Decision)
	assert.Equal(t, caller.ID, res.Account.ID)
	assert.False(t, res.Method.IsPrimary)
	assert.True(t, res.Method.IsVerified)

	methods, err := s.ListLoginMethods(caller.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 2)
}

func TestResolveBindRejectsSecondMethodForProvider(t *testing.T) {
	l, s := setupLinker(t)

	caller := createLocalAccount(t, s, "alice", "alice@example.com")

	_, err := l.Resolve(googleIdentity("g1", "a@example.com"), caller.ID)
	require.NoError(t, err)

	_, err = l.Resolve(googleIdentity("g2", "b@example.com"), caller.ID)
	assert.ErrorIs(t, err, ErrProviderAlreadyLinked)
}

func TestResolveEmailCollisionRejected(t *testing.T) {
	l, s := setupLinker(t)

	createLocalAccount(t, s, "alice", "alice@example.com")

	_, err := l.Resolve(googleIdentity("g777", "alice@example.com"), "")
	assert.ErrorIs(t, err, ErrEmailCollision)
}

func TestResolveDisabledCallerTreatedAsAbsent(t *testing.T) {
	l, s := setupLinker(t)

	caller := createLocalAccount(t, s, "alice", "alice@example.com")
	caller.Enabled = false
	require.NoError(t, s.UpdateAccount(caller))

	// With the caller ignored, the identity's colliding email is rejected
	// instead of bound.
	_, err := l.Resolve(googleIdentity("g777", "alice@example.com"), caller.ID)
	assert.ErrorIs(t, err, ErrEmailCollision)
}

func TestResolveSynthesizesPlaceholderEmail(t *testing.T) {
	l, _ := setupLinker(t)

	identity := &models.ProviderIdentity{
		Provider:       models.ProviderTwitter,
		ProviderUserID: "tw42",
		Username:       "birduser",
		DisplayName:    "Bird User",
	}

	res, err := l.Resolve(identity, "")
	require.NoError(t, err)
	assert.Equal(t, DecisionCreate, res.Decision)
	assert.Equal(t, "twitter_tw42@oauth.local", res.Account.Email)
	assert.Equal(t, "twitter_tw42@oauth.local", res.Account.Username)
}

func TestResolveRejectsLocalProvider(t *testing.T) {
	l, _ := setupLinker(t)

	_, err := l.Resolve(&models.ProviderIdentity{
		Provider:       models.ProviderLocal,
		ProviderUserID: "x",
	}, "")
	assert.ErrorIs(t, err, models.ErrUnknownProvider)
}

func TestCreateRaceLoserResolvesAsLogin(t *testing.T) {
	l, s := setupLinker(t)

	winner, err := l.Resolve(googleIdentity("g123", "race@example.com"), "")
	require.NoError(t, err)

	// A concurrent first sight of the same identity: the winner's rows are
	// already committed, so the loser's insert hits the unique index and must
	// recover by re-reading.
	loser, err := l.create(googleIdentity("g123", "race@example.com"))
	require.NoError(t, err)
	assert.Equal(t, DecisionLogin, loser.Decision)
	assert.Equal(t, winner.Account.ID, loser.Account.ID)

	// Exactly one method row survives the race.
	methods, err := s.ListLoginMethods(winner.Account.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestBindRaceAgainstForeignOwnerRejected(t *testing.T) {
	l, s := setupLinker(t)

	_, err := l.Resolve(googleIdentity("g123", "owner@example.com"), "")
	require.NoError(t, err)

	caller := createLocalAccount(t, s, "other", "other@example.com")

	// The identity was bound elsewhere between the caller's callback and the
	// insert; the loser re-reads and rejects.
	_, err = l.bind(googleIdentity("g123", "owner@example.com"), caller)
	assert.ErrorIs(t, err, ErrProviderIdentityAlreadyBound)

	methods, err := s.ListLoginMethods(caller.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestBindRaceSameProviderResolvesAsAlreadyLinked(t *testing.T) {
	l, s := setupLinker(t)

	caller := createLocalAccount(t, s, "alice", "alice@example.com")
	_, err := l.Resolve(googleIdentity("g1", "a@example.com"), caller.ID)
	require.NoError(t, err)

	// Two binds for the same provider raced with different subjects: the
	// winner's method is committed and the loser's subject is nowhere to be
	// found. The loser gets the provider conflict, not an email one.
	_, err = l.resolveDuplicate(googleIdentity("g2", "b@example.com"), caller.ID)
	assert.ErrorIs(t, err, ErrProviderAlreadyLinked)
}

func TestAddLocalLoginMethod(t *testing.T) {
	l, s := setupLinker(t)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	created, err := l.Resolve(googleIdentity("g123", "user@example.com"), "")
	require.NoError(t, err)

	method, err := l.AddLocalLoginMethod(created.Account.ID, "user1", "pa55word", hasher)
	require.NoError(t, err)
	assert.False(t, method.IsPrimary)
	assert.False(t, method.IsVerified)
	require.NoError(t, hasher.Verify(method.LocalPasswordHash, "pa55word"))

	methods, err := s.ListLoginMethods(created.Account.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 2)

	// A second local method on the same account is rejected.
	_, err = l.AddLocalLoginMethod(created.Account.ID, "user2", "pa55word", hasher)
	assert.ErrorIs(t, err, ErrProviderAlreadyLinked)
}

func TestAddLocalLoginMethodUsernameTaken(t *testing.T) {
	l, s := setupLinker(t)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	createLocalAccount(t, s, "alice", "alice@example.com")

	created, err := l.Resolve(googleIdentity("g123", "user@example.com"), "")
	require.NoError(t, err)

	_, err = l.AddLocalLoginMethod(created.Account.ID, "alice", "pa55word", hasher)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAddLocalLoginMethodUnknownAccount(t *testing.T) {
	l, _ := setupLinker(t)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	_, err := l.AddLocalLoginMethod(uuid.New().String(), "ghost", "pa55word", hasher)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRemoveLoginMethodPromotesAndEnforcesFloor(t *testing.T) {
	l, s := setupLinker(t)

	// LOCAL (primary) + GOOGLE, then remove LOCAL.
	account := createLocalAccount(t, s, "alice", "alice@example.com")
	bound, err := l.Resolve(googleIdentity("g5", "alice.g@example.com"), account.ID)
	require.NoError(t, err)

	methods, err := l.ListLoginMethods(account.ID)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	localID := methods[0].ID
	require.True(t, methods[0].IsPrimary)

	require.NoError(t, l.RemoveLoginMethod(account.ID, localID))

	remaining, err := l.ListLoginMethods(account.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, bound.Method.ID, remaining[0].ID)
	assert.True(t, remaining[0].IsPrimary)

	// The removed method is gone, not merely demoted.
	err = l.SetPrimaryLoginMethod(account.ID, localID)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	// And the survivor cannot be removed.
	err = l.RemoveLoginMethod(account.ID, remaining[0].ID)
	assert.ErrorIs(t, err, store.ErrLastLoginMethodRemoval)
}

func TestSetPrimaryLoginMethod(t *testing.T) {
	l, s := setupLinker(t)

	account := createLocalAccount(t, s, "alice", "alice@example.com")
	bound, err := l.Resolve(googleIdentity("g5", "alice.g@example.com"), account.ID)
	require.NoError(t, err)

	require.NoError(t, l.SetPrimaryLoginMethod(account.ID, bound.Method.ID))

	methods, err := l.ListLoginMethods(account.ID)
	require.NoError(t, err)
	primaries := 0
	for _, m := range methods {
		if m.IsPrimary {
			primaries++
			assert.Equal(t, bound.Method.ID, m.ID)
		}
	}
	assert.Equal(t, 1, primaries)
}
