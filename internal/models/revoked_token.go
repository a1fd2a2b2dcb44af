package models

import (
	"time"
)

// Token type values recorded in the revocation blacklist.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// RevokedToken is a blacklist entry keyed on the token's jti. Entries keep
// the token's own expiry so the blacklist self-prunes: once the token would
// have expired anyway, the row is garbage.
type RevokedToken struct {
	JTI       string `gorm:"primaryKey"`
	TokenType string `gorm:"not null"`
	AccountID string
	Reason    string
	ExpiresAt time.Time `gorm:"index;not null"`
	RevokedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the table name used by RevokedToken to `token_blacklist`
func (RevokedToken) TableName() string {
	return "token_blacklist"
}
