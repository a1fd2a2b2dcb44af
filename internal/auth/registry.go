package auth

import (
	"fmt"

	"github.com/go-authlink/authlink/internal/models"
)

// Registry holds the configured OAuth2 providers keyed by provider name.
type Registry struct {
	providers map[models.Provider]*OAuthProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[models.Provider]*OAuthProvider)}
}

// Register adds a provider. Later registrations replace earlier ones.
func (r *Registry) Register(p *OAuthProvider) {
	r.providers[p.Provider()] = p
}

// Get returns the provider, or ErrUnsupportedProvider if it was never
// configured.
func (r *Registry) Get(provider models.Provider) (*OAuthProvider, error) {
	p, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	return p, nil
}

// Enabled lists the configured providers.
func (r *Registry) Enabled() []models.Provider {
	out := make([]models.Provider, 0, len(r.providers))
	for p := range r.providers {
		out = append(out, p)
	}
	return out
}
