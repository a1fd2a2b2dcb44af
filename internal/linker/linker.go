// Package linker decides what an incoming OAuth2 identity means for the
// account graph: sign in, attach to the caller's account, create a fresh
// account, or reject.
package linker

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-authlink/authlink/internal/core"
	"github.com/go-authlink/authlink/internal/models"
	"github.com/go-authlink/authlink/internal/store"

	"github.com/google/uuid"
)

// Decisions returned by Resolve.
const (
	DecisionLogin  = "login"
	DecisionBind   = "bind"
	DecisionCreate = "create"
)

// Result is the outcome of a successful linking decision.
type Result struct {
	Decision string
	Account  *models.Account
	Method   *models.LoginMethod
}

// Linker is the only mutator of the login-method set. All invariant
// enforcement for linking lives here and in the store's transactions.
type Linker struct {
	store   *store.Store
	metrics core.Recorder
}

// New creates a Linker.
func New(s *store.Store, recorder core.Recorder) *Linker {
	return &Linker{store: s, metrics: recorder}
}

// Resolve runs the linking decision for a provider-verified identity.
// callerAccountID is the account of the caller's valid access token, or
// empty when the callback arrived without a session. The rules are evaluated
// in order; the first match wins:
//
//  1. identity already bound, owner matches caller (or no caller): LOGIN
//  2. identity already bound to someone else: reject
//  3. no binding, caller present and enabled: BIND to caller's account
//  4. no binding, no caller, email belongs to an existing account: reject
//  5. otherwise: CREATE a new account
func (l *Linker) Resolve(
	identity *models.ProviderIdentity,
	callerAccountID string,
) (*Result, error) {
	if !identity.Provider.IsOAuth2() {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownProvider, identity.Provider)
	}

	existing, err := l.store.GetLoginMethodByProviderIdentity(
		identity.Provider,
		identity.ProviderUserID,
	)
	switch {
	case err == nil:
		return l.resolveExisting(existing, callerAccountID)
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, err
	}

	if caller := l.resolveCaller(callerAccountID); caller != nil {
		return l.bind(identity, caller)
	}

	if identity.Email != "" {
		if _, err := l.store.GetAccountByEmail(identity.Email); err == nil {
			l.metrics.RecordLinkDecision(identity.Provider.Slug(), "rejected_email_collision")
			return nil, ErrEmailCollision
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, err
		}
	}

	return l.create(identity)
}

// resolveExisting handles rules 1 and 2: the identity is already bound.
func (l *Linker) resolveExisting(
	m *models.LoginMethod,
	callerAccountID string,
) (*Result, error) {
	if callerAccountID != "" && m.AccountID != callerAccountID {
		l.metrics.RecordLinkDecision(m.Provider.Slug(), "rejected_identity_bound")
		return nil, ErrProviderIdentityAlreadyBound
	}

	account, err := l.store.GetAccountByID(m.AccountID)
	if err != nil {
		return nil, err
	}
	if err := l.store.TouchLoginMethodUsed(m.ID, time.Now()); err != nil {
		log.Printf("[Linker] Failed to touch method %s: %v", m.ID, err)
	}

	l.metrics.RecordLinkDecision(m.Provider.Slug(), DecisionLogin)
	return &Result{Decision: DecisionLogin, Account: account, Method: m}, nil
}

// resolveCaller turns a caller account ID into an account, treating missing
// and disabled accounts as no caller at all so the flow falls through to the
// collision check.
func (l *Linker) resolveCaller(callerAccountID string) *models.Account {
	if callerAccountID == "" {
		return nil
	}
	account, err := l.store.GetAccountByID(callerAccountID)
	if err != nil || !account.Enabled {
		return nil
	}
	return account
}

// bind attaches the identity to the caller's account as a new non-primary,
// verified method (rule 3).
func (l *Linker) bind(
	identity *models.ProviderIdentity,
	caller *models.Account,
) (*Result, error) {
	_, err := l.store.GetLoginMethodByAccountAndProvider(caller.ID, identity.Provider)
	switch {
	case err == nil:
		l.metrics.RecordLinkDecision(identity.Provider.Slug(), "rejected_provider_linked")
		return nil, ErrProviderAlreadyLinked
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, err
	}

	method := newOAuthMethod(identity)
	method.AccountID = caller.ID

	if err := l.store.CreateLoginMethod(method); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return l.resolveDuplicate(identity, caller.ID)
		}
		return nil, err
	}

	l.metrics.RecordLinkDecision(identity.Provider.Slug(), DecisionBind)
	return &Result{Decision: DecisionBind, Account: caller, Method: method}, nil
}

// create makes a brand-new account owning the identity as its primary method
// (rule 5). A provider that supplied no email gets a placeholder address.
func (l *Linker) create(identity *models.ProviderIdentity) (*Result, error) {
	email := identity.Email
	if email == "" {
		email = fmt.Sprintf(
			"%s_%s@oauth.local",
			identity.Provider.Slug(),
			identity.ProviderUserID,
		)
	}

	account := &models.Account{
		ID:            uuid.New().String(),
		Username:      email,
		Email:         email,
		DisplayName:   identity.DisplayName,
		AvatarURL:     identity.AvatarURL,
		Enabled:       true,
		EmailVerified: true,
	}

	method := newOAuthMethod(identity)
	method.ProviderEmail = email

	if err := l.store.CreateAccountWithMethod(account, method); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return l.resolveDuplicate(identity, "")
		}
		return nil, err
	}

	l.metrics.RecordLinkDecision(identity.Provider.Slug(), DecisionCreate)
	return &Result{Decision: DecisionCreate, Account: account, Method: method}, nil
}

// resolveDuplicate handles the create/bind race: a unique index fired, so
// someone else won. Re-read and either treat it as LOGIN or reject, exactly
// as if the winner's row had been there all along.
func (l *Linker) resolveDuplicate(
	identity *models.ProviderIdentity,
	callerAccountID string,
) (*Result, error) {
	existing, err := l.store.GetLoginMethodByProviderIdentity(
		identity.Provider,
		identity.ProviderUserID,
	)
	switch {
	case err == nil:
		return l.resolveExisting(existing, callerAccountID)
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, err
	}

	// The identity is not there, so the conflict fired on another index. On
	// the bind path that can be the one-method-per-provider index, when two
	// binds for the same provider raced with different subjects.
	if callerAccountID != "" {
		_, err := l.store.GetLoginMethodByAccountAndProvider(callerAccountID, identity.Provider)
		switch {
		case err == nil:
			l.metrics.RecordLinkDecision(identity.Provider.Slug(), "rejected_provider_linked")
			return nil, ErrProviderAlreadyLinked
		case !errors.Is(err, store.ErrRecordNotFound):
			return nil, err
		}
	}

	// Otherwise the conflict was on the account email.
	l.metrics.RecordLinkDecision(identity.Provider.Slug(), "rejected_email_collision")
	return nil, ErrEmailCollision
}

func newOAuthMethod(identity *models.ProviderIdentity) *models.LoginMethod {
	subject := identity.ProviderUserID
	return &models.LoginMethod{
		ID:               uuid.New().String(),
		Provider:         identity.Provider,
		ProviderUserID:   &subject,
		ProviderEmail:    identity.Email,
		ProviderUsername: identity.Username,
		AvatarURL:        identity.AvatarURL,
		IsVerified:       true,
	}
}
