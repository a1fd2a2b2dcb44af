package store

import (
	"fmt"
	"time"

	"github.com/go-authlink/authlink/internal/models"

	"gorm.io/gorm"
)

// CreateLoginMethod attaches an additional method to an existing account.
// Unique indexes reject duplicate provider identities and local usernames;
// callers translate ErrDuplicateKey into their own rejection.
func (s *Store) CreateLoginMethod(m *models.LoginMethod) error {
	return translate(s.db.Create(m).Error)
}

// GetLoginMethodByID looks up a single login method.
func (s *Store) GetLoginMethodByID(id string) (*models.LoginMethod, error) {
	var m models.LoginMethod
	if err := s.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// GetLoginMethodByLocalUsername finds the LOCAL method carrying the given
// globally unique username.
func (s *Store) GetLoginMethodByLocalUsername(username string) (*models.LoginMethod, error) {
	var m models.LoginMethod
	if err := s.db.Where("local_username = ?", username).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// GetLoginMethodByProviderIdentity finds the method bound to the provider's
// subject identifier, across all accounts.
func (s *Store) GetLoginMethodByProviderIdentity(
	provider models.Provider,
	providerUserID string,
) (*models.LoginMethod, error) {
	var m models.LoginMethod
	err := s.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// GetLoginMethodByAccountAndProvider finds an account's method for one
// provider, if any. At most one exists per (account, provider).
func (s *Store) GetLoginMethodByAccountAndProvider(
	accountID string,
	provider models.Provider,
) (*models.LoginMethod, error) {
	var m models.LoginMethod
	err := s.db.Where("account_id = ? AND provider = ?", accountID, provider).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// ListLoginMethods returns all methods of an account, oldest first.
func (s *Store) ListLoginMethods(accountID string) ([]models.LoginMethod, error) {
	var methods []models.LoginMethod
	err := s.db.Where("account_id = ?", accountID).
		Order("linked_at ASC").
		Find(&methods).Error
	if err != nil {
		return nil, translate(err)
	}
	return methods, nil
}

// TouchLoginMethodUsed records a successful authentication via the method.
func (s *Store) TouchLoginMethodUsed(methodID string, at time.Time) error {
	return translate(s.db.Model(&models.LoginMethod{}).
		Where("id = ?", methodID).
		Update("last_used_at", at).Error)
}

// SetPrimaryLoginMethod demotes the account's current primary method and
// promotes the target, in one transaction. The target must belong to the
// account.
func (s *Store) SetPrimaryLoginMethod(accountID, methodID string) error {
	return translate(s.db.Transaction(func(tx *gorm.DB) error {
		var m models.LoginMethod
		if err := tx.Where("id = ?", methodID).First(&m).Error; err != nil {
			return err
		}
		if m.AccountID != accountID {
			return ErrMethodNotOwned
		}
		if m.IsPrimary {
			return nil
		}

		err := tx.Model(&models.LoginMethod{}).
			Where("account_id = ? AND is_primary = ?", accountID, true).
			Update("is_primary", false).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.LoginMethod{}).
			Where("id = ?", methodID).
			Update("is_primary", true).Error
	}))
}

// DeleteLoginMethod removes a method from an account. The last remaining
// method is never removable; removing the primary promotes a sibling first.
// The whole decision runs in one transaction.
func (s *Store) DeleteLoginMethod(accountID, methodID string) error {
	return translate(s.db.Transaction(func(tx *gorm.DB) error {
		var m models.LoginMethod
		if err := tx.Where("id = ?", methodID).First(&m).Error; err != nil {
			return err
		}
		if m.AccountID != accountID {
			return ErrMethodNotOwned
		}

		var count int64
		err := tx.Model(&models.LoginMethod{}).
			Where("account_id = ?", accountID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastLoginMethodRemoval
		}

		if m.IsPrimary {
			var sibling models.LoginMethod
			err := tx.Where("account_id = ? AND id <> ?", accountID, methodID).
				Order("linked_at ASC").
				First(&sibling).Error
			if err != nil {
				return fmt.Errorf("promote sibling: %w", err)
			}
			err = tx.Model(&models.LoginMethod{}).
				Where("id = ?", sibling.ID).
				Update("is_primary", true).Error
			if err != nil {
				return err
			}
		}

		return tx.Delete(&m).Error
	}))
}
