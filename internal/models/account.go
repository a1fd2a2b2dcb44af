package models

import (
	"strings"
	"time"
)

// DefaultAuthority is granted to every account at creation.
const DefaultAuthority = "ROLE_USER"

// Account is a person's durable identity, independent of how they
// authenticate. Every account owns at least one LoginMethod; the store's
// transactional mutators are the only code allowed to change that set.
type Account struct {
	ID          string `gorm:"primaryKey"`
	Username    string `gorm:"uniqueIndex;not null"`
	Email       string `gorm:"uniqueIndex;not null"`
	DisplayName string
	AvatarURL   string `gorm:"type:text"`

	// Authorities is a space-separated list of role strings, never empty.
	Authorities string `gorm:"not null;default:'ROLE_USER'"`

	Enabled       bool `gorm:"not null;default:true"`
	EmailVerified bool `gorm:"not null;default:false"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt time.Time
}

// AuthorityList splits the stored authorities string into a slice.
func (a *Account) AuthorityList() []string {
	if a.Authorities == "" {
		return []string{DefaultAuthority}
	}
	return strings.Fields(a.Authorities)
}

// HasAuthority reports whether the account carries the given role.
func (a *Account) HasAuthority(role string) bool {
	for _, r := range a.AuthorityList() {
		if r == role {
			return true
		}
	}
	return false
}
