package store

import (
	"time"

	"github.com/go-authlink/authlink/internal/models"

	"gorm.io/gorm"
)

// CreateAccount persists a new account. The caller provides the ID.
func (s *Store) CreateAccount(a *models.Account) error {
	if a.Authorities == "" {
		a.Authorities = models.DefaultAuthority
	}
	return translate(s.db.Create(a).Error)
}

// CreateAccountWithMethod creates an account and its first login method as a
// single atomic unit, so an account is never observable without a method.
func (s *Store) CreateAccountWithMethod(a *models.Account, m *models.LoginMethod) error {
	if a.Authorities == "" {
		a.Authorities = models.DefaultAuthority
	}
	m.AccountID = a.ID
	m.IsPrimary = true

	return translate(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return tx.Create(m).Error
	}))
}

// GetAccountByID looks up an account by its opaque identifier.
func (s *Store) GetAccountByID(id string) (*models.Account, error) {
	var a models.Account
	if err := s.db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// GetAccountByUsername looks up an account by its unique username.
func (s *Store) GetAccountByUsername(username string) (*models.Account, error) {
	var a models.Account
	if err := s.db.Where("username = ?", username).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// GetAccountByEmail looks up an account by its unique email.
func (s *Store) GetAccountByEmail(email string) (*models.Account, error) {
	var a models.Account
	if err := s.db.Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// UpdateAccount saves presentation metadata and flags (last writer wins).
func (s *Store) UpdateAccount(a *models.Account) error {
	return translate(s.db.Save(a).Error)
}

// TouchAccountLogin records a successful authentication on the account.
func (s *Store) TouchAccountLogin(accountID string, at time.Time) error {
	return translate(s.db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("last_login_at", at).Error)
}
