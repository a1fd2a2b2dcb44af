package models

import (
	"time"
)

// LoginMethod is one way to authenticate into exactly one Account.
//
// Uniqueness is enforced at the database level: (provider, provider_user_id)
// is unique across all accounts, local_username is unique across all
// accounts, and (account_id, provider) is unique so an account holds at most
// one method per provider. LOCAL rows leave the provider columns NULL and
// OAuth2 rows leave the local columns NULL, so the partial indexes never
// collide across kinds.
type LoginMethod struct {
	ID        string   `gorm:"primaryKey"`
	AccountID string   `gorm:"not null;uniqueIndex:idx_method_account_provider,priority:1"`
	Provider  Provider `gorm:"type:varchar(32);not null;uniqueIndex:idx_method_account_provider,priority:2;uniqueIndex:idx_method_provider_subject,priority:1"`

	// OAuth2 provider fields
	ProviderUserID   *string `gorm:"uniqueIndex:idx_method_provider_subject,priority:2"`
	ProviderEmail    string
	ProviderUsername string
	AvatarURL        string `gorm:"type:text"`

	// Local credential fields
	LocalUsername     *string `gorm:"uniqueIndex"`
	LocalPasswordHash string

	// Exactly one method per account is primary; the store keeps it so.
	IsPrimary  bool `gorm:"not null;default:false"`
	IsVerified bool `gorm:"not null;default:false"`

	LinkedAt   time.Time `gorm:"autoCreateTime"`
	LastUsedAt time.Time
}

// TableName overrides the table name used by LoginMethod to `login_methods`
func (LoginMethod) TableName() string {
	return "login_methods"
}

// IsLocal reports whether this is a username/password method.
func (m *LoginMethod) IsLocal() bool {
	return m.Provider == ProviderLocal
}

// Subject returns the provider-side subject identifier, or "" for LOCAL.
func (m *LoginMethod) Subject() string {
	if m.ProviderUserID == nil {
		return ""
	}
	return *m.ProviderUserID
}
