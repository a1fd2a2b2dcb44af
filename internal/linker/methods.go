package linker

import (
	"errors"

	"github.com/go-authlink/authlink/internal/auth"
	"github.com/go-authlink/authlink/internal/models"
	"github.com/go-authlink/authlink/internal/store"

	"github.com/google/uuid"
)

// AddLocalLoginMethod attaches a password method to an existing account. The
// account must not already have one, and the username must be globally
// unused. The new method starts non-primary and unverified.
func (l *Linker) AddLocalLoginMethod(
	accountID, username, password string,
	hasher auth.PasswordHasher,
) (*models.LoginMethod, error) {
	if _, err := l.store.GetAccountByID(accountID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	_, err := l.store.GetLoginMethodByAccountAndProvider(accountID, models.ProviderLocal)
	switch {
	case err == nil:
		l.metrics.RecordMethodMutation("add_local", false)
		return nil, ErrProviderAlreadyLinked
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, err
	}

	if _, err := l.store.GetLoginMethodByLocalUsername(username); err == nil {
		l.metrics.RecordMethodMutation("add_local", false)
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	method := &models.LoginMethod{
		ID:                uuid.New().String(),
		AccountID:         accountID,
		Provider:          models.ProviderLocal,
		LocalUsername:     &username,
		LocalPasswordHash: hash,
	}

	if err := l.store.CreateLoginMethod(method); err != nil {
		l.metrics.RecordMethodMutation("add_local", false)
		if errors.Is(err, store.ErrDuplicateKey) {
			// Either the username or the (account, provider) slot was taken
			// by a concurrent writer; re-check to report the right one.
			if _, err := l.store.GetLoginMethodByLocalUsername(username); err == nil {
				return nil, ErrUsernameTaken
			}
			return nil, ErrProviderAlreadyLinked
		}
		return nil, err
	}

	l.metrics.RecordMethodMutation("add_local", true)
	return method, nil
}

// RemoveLoginMethod deletes a method from an account, enforcing ownership,
// the at-least-one-method invariant, and primary promotion.
func (l *Linker) RemoveLoginMethod(accountID, methodID string) error {
	err := l.store.DeleteLoginMethod(accountID, methodID)
	l.metrics.RecordMethodMutation("remove", err == nil)
	return err
}

// SetPrimaryLoginMethod makes the given method the account's primary one.
func (l *Linker) SetPrimaryLoginMethod(accountID, methodID string) error {
	err := l.store.SetPrimaryLoginMethod(accountID, methodID)
	l.metrics.RecordMethodMutation("set_primary", err == nil)
	return err
}

// ListLoginMethods returns an account's methods, oldest first.
func (l *Linker) ListLoginMethods(accountID string) ([]models.LoginMethod, error) {
	return l.store.ListLoginMethods(accountID)
}
