package store

import (
	"time"

	"github.com/go-authlink/authlink/internal/models"

	"gorm.io/gorm/clause"
)

// RevokeToken adds a jti to the blacklist. Revoking the same jti twice is a
// no-op, not an error.
func (s *Store) RevokeToken(rt *models.RevokedToken) error {
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(rt).Error
	return translate(err)
}

// IsTokenRevoked reports whether a jti is on the blacklist.
func (s *Store) IsTokenRevoked(jti string) (bool, error) {
	var count int64
	err := s.db.Model(&models.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

// CountRevokedTokens returns the number of live blacklist entries, split by
// token type. Used for gauge reporting.
func (s *Store) CountRevokedTokens(tokenType string) (int64, error) {
	var count int64
	err := s.db.Model(&models.RevokedToken{}).
		Where("token_type = ? AND expires_at >= ?", tokenType, time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}

// DeleteExpiredRevocations prunes blacklist entries whose tokens have
// expired on their own. Returns the number of rows removed.
func (s *Store) DeleteExpiredRevocations() (int64, error) {
	res := s.db.Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}
