package models

import (
	"errors"
	"fmt"
	"strings"
)

// Provider identifies a login method type. The set is closed: the rest of
// the codebase matches on these constants, never on raw request strings.
type Provider string

const (
	ProviderLocal   Provider = "LOCAL"
	ProviderGoogle  Provider = "GOOGLE"
	ProviderGitHub  Provider = "GITHUB"
	ProviderTwitter Provider = "TWITTER"
)

// ErrUnknownProvider indicates a provider string that is not in the closed set
var ErrUnknownProvider = errors.New("unknown provider")

// ParseProvider normalizes an external provider string into a Provider.
// This is the single entry point for provider names; "x" is accepted as an
// alias for Twitter since the provider rebranded.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return ProviderLocal, nil
	case "google":
		return ProviderGoogle, nil
	case "github":
		return ProviderGitHub, nil
	case "twitter", "x":
		return ProviderTwitter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// String returns the canonical upper-case name.
func (p Provider) String() string {
	return string(p)
}

// Slug returns the lower-case form used in URLs and synthesized emails.
func (p Provider) Slug() string {
	return strings.ToLower(string(p))
}

// IsOAuth2 reports whether the provider is an external OAuth2 identity
// provider rather than local username/password.
func (p Provider) IsOAuth2() bool {
	return p != ProviderLocal
}

// ProviderIdentity is the normalized, already-provider-verified identity
// tuple handed to the linker by the OAuth2 boundary. Email, DisplayName and
// AvatarURL are optional; ProviderUserID is the provider's stable subject.
type ProviderIdentity struct {
	Provider       Provider
	ProviderUserID string
	Email          string
	Username       string // provider-side username/handle
	DisplayName    string
	AvatarURL      string
}
