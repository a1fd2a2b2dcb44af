package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-authlink/authlink/internal/config"
	"github.com/go-authlink/authlink/internal/store"
)

// initializeDatabase opens the database and runs migrations
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("Database initialized (driver=%s)", cfg.DatabaseDriver)
	return db, nil
}
