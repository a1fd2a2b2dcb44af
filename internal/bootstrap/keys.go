package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-authlink/authlink/internal/config"
	"github.com/go-authlink/authlink/internal/keys"
)

// initializeKeys loads or creates the RSA signing key. With
// REQUIRE_PERSISTENT_KEYS set, an unreadable key store aborts startup
// instead of falling back to an in-memory key.
func initializeKeys(cfg *config.Config) (*keys.Manager, error) {
	km := keys.NewManager(cfg.JWTKeyFile, cfg.RequirePersistentKeys)
	if err := km.Load(); err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}

	if km.Degraded() {
		log.Printf("Signing keys: in-memory only, kid=%s (tokens will not survive a restart)", km.KID())
	} else {
		log.Printf("Signing keys: %s, kid=%s", cfg.JWTKeyFile, km.KID())
	}
	return km, nil
}
