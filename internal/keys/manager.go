// Package keys owns the RSA signing key pair: loading it from disk,
// generating it on first boot, and publishing it as a JWK set.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"sync"
)

const rsaKeyBits = 2048

var (
	// ErrKeyStoreUnavailable means the key file could not be read or written
	// and persistent keys are required.
	ErrKeyStoreUnavailable = errors.New("key store unavailable")

	// ErrNotInitialized means Load was never called or failed.
	ErrNotInitialized = errors.New("key manager not initialized")
)

// Manager holds the process-wide signing key. Load runs at most once; every
// token signed afterwards uses the same key and kid.
type Manager struct {
	path              string
	requirePersistent bool

	once     sync.Once
	initErr  error
	key      *rsa.PrivateKey
	kid      string
	degraded bool
}

// NewManager prepares a manager for the given key file path. When
// requirePersistent is set, any failure to load or persist the key is fatal
// instead of falling back to an in-memory key.
func NewManager(path string, requirePersistent bool) *Manager {
	return &Manager{path: path, requirePersistent: requirePersistent}
}

// Load loads the key pair from disk, generating and persisting a new one if
// none exists. Safe to call from multiple goroutines; only the first call
// does work.
func (m *Manager) Load() error {
	m.once.Do(func() {
		m.initErr = m.load()
	})
	return m.initErr
}

func (m *Manager) load() error {
	key, err := readKeyFile(m.path)
	switch {
	case err == nil:
		log.Printf("[Keys] Loaded RSA key pair from %s", m.path)
	case errors.Is(err, os.ErrNotExist):
		key, err = m.generateAndPersist()
		if err != nil {
			return err
		}
	default:
		if m.requirePersistent {
			return fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
		}
		log.Printf("[Keys] Failed to load key file %s: %v", m.path, err)
		key, err = generateKey()
		if err != nil {
			return err
		}
		m.degraded = true
		log.Printf("[Keys] DEGRADED: using in-memory key pair; tokens will not survive restarts")
	}

	m.key = key
	m.kid = computeKID(&key.PublicKey)
	return nil
}

func (m *Manager) generateAndPersist() (*rsa.PrivateKey, error) {
	key, err := generateKey()
	if err != nil {
		return nil, err
	}

	if err := writeKeyFile(m.path, key); err != nil {
		if m.requirePersistent {
			return nil, fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
		}
		m.degraded = true
		log.Printf("[Keys] Failed to persist key file %s: %v", m.path, err)
		log.Printf("[Keys] DEGRADED: using in-memory key pair; tokens will not survive restarts")
		return key, nil
	}

	log.Printf("[Keys] Generated new RSA key pair and stored in %s", m.path)
	return key, nil
}

// Private returns the signing key.
func (m *Manager) Private() (*rsa.PrivateKey, error) {
	if m.key == nil {
		return nil, ErrNotInitialized
	}
	return m.key, nil
}

// Public returns the verification key.
func (m *Manager) Public() (*rsa.PublicKey, error) {
	if m.key == nil {
		return nil, ErrNotInitialized
	}
	return &m.key.PublicKey, nil
}

// KID returns the key identifier placed in JWT headers and the JWK set. It
// is derived from the public key, so reloading the same key file yields the
// same kid.
func (m *Manager) KID() string {
	return m.kid
}

// Degraded reports whether the manager fell back to an in-memory key.
func (m *Manager) Degraded() bool {
	return m.degraded
}

// JWK is a single RSA public key in JSON Web Key form.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSet is the document served at /.well-known/jwks.json.
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// JWKS returns the public key set for token verification by third parties.
func (m *Manager) JWKS() (*JWKSet, error) {
	pub, err := m.Public()
	if err != nil {
		return nil, err
	}
	return &JWKSet{
		Keys: []JWK{{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: m.kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}, nil
}

func generateKey() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %w", err)
	}
	return key, nil
}

// computeKID derives a stable identifier from the public key bytes.
func computeKID(pub *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		// MarshalPKIXPublicKey cannot fail for a valid *rsa.PublicKey.
		return "key-1"
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:8])
}

func readKeyFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key file %s does not contain an RSA key", path)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block %q in %s", block.Type, path)
	}
}

func writeKeyFile(path string, key *rsa.PrivateKey) error {
	data := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return os.WriteFile(path, data, 0o600)
}
