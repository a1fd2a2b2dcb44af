package store

import (
	"errors"

	"github.com/go-authlink/authlink/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the database connection and exposes the only mutators allowed
// to touch accounts, login methods, and the revocation blacklist.
type Store struct {
	db *gorm.DB
}

// New opens the database for the given driver/DSN and migrates the schema.
func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.LoginMethod{},
		&models.RevokedToken{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Health verifies database connectivity.
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB exposes the underlying gorm.DB for migrations and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// translate maps GORM errors onto the store's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}
