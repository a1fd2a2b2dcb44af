package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-authlink/authlink/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// OAuthProviderConfig contains configuration for an OAuth2 provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OAuthProvider handles OAuth2 authentication against one upstream provider
type OAuthProvider struct {
	config   *oauth2.Config
	provider models.Provider
}

// NewGoogleProvider creates a Google OAuth2 provider
func NewGoogleProvider(cfg OAuthProviderConfig) *OAuthProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	return &OAuthProvider{
		provider: models.ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// NewGitHubProvider creates a GitHub OAuth2 provider
func NewGitHubProvider(cfg OAuthProviderConfig) *OAuthProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
	}
	return &OAuthProvider{
		provider: models.ProviderGitHub,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     github.Endpoint,
		},
	}
}

// NewTwitterProvider creates a Twitter (X) OAuth2 provider
func NewTwitterProvider(cfg OAuthProviderConfig) *OAuthProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"users.read", "tweet.read"}
	}
	return &OAuthProvider{
		provider: models.ProviderTwitter,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://twitter.com/i/oauth2/authorize",
				TokenURL: "https://api.twitter.com/2/oauth2/token",
			},
		},
	}
}

// GetAuthURL returns the OAuth2 authorization URL
func (p *OAuthProvider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode exchanges an authorization code for an access token
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

// Provider returns the provider this instance talks to
func (p *OAuthProvider) Provider() models.Provider {
	return p.provider
}

// FetchIdentity retrieves the authenticated user's identity from the
// provider's user-info API.
func (p *OAuthProvider) FetchIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (*models.ProviderIdentity, error) {
	switch p.provider {
	case models.ProviderGoogle:
		return p.fetchGoogleIdentity(ctx, token)
	case models.ProviderGitHub:
		return p.fetchGitHubIdentity(ctx, token)
	case models.ProviderTwitter:
		return p.fetchTwitterIdentity(ctx, token)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p.provider)
	}
}

func (p *OAuthProvider) get(
	ctx context.Context,
	token *oauth2.Token,
	url string,
	out any,
) error {
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s API error: %s - %s", p.provider, resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode user info: %w", err)
	}
	return nil
}

// Google user info structure
type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *OAuthProvider) fetchGoogleIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (*models.ProviderIdentity, error) {
	var user googleUser
	err := p.get(ctx, token, "https://www.googleapis.com/oauth2/v2/userinfo", &user)
	if err != nil {
		return nil, err
	}

	email := user.Email
	if !user.VerifiedEmail {
		email = ""
	}

	return &models.ProviderIdentity{
		Provider:       models.ProviderGoogle,
		ProviderUserID: user.ID,
		Email:          email,
		Username:       user.Email,
		DisplayName:    user.Name,
		AvatarURL:      user.Picture,
	}, nil
}

// GitHub user info structures
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email      string `json:"email"`
	Primary    bool   `json:"primary"`
	Verified   bool   `json:"verified"`
	Visibility string `json:"visibility"`
}

func (p *OAuthProvider) fetchGitHubIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (*models.ProviderIdentity, error) {
	var user githubUser
	if err := p.get(ctx, token, "https://api.github.com/user", &user); err != nil {
		return nil, err
	}

	// If email is not public, fetch from emails endpoint
	if user.Email == "" {
		email, err := p.getGitHubPrimaryEmail(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("failed to get user email: %w", err)
		}
		user.Email = email
	}

	return &models.ProviderIdentity{
		Provider:       models.ProviderGitHub,
		ProviderUserID: fmt.Sprintf("%d", user.ID),
		Email:          user.Email,
		Username:       user.Login,
		DisplayName:    user.Name,
		AvatarURL:      user.AvatarURL,
	}, nil
}

// getGitHubPrimaryEmail fetches the primary verified email from the GitHub
// emails endpoint. An account with no verified email yields an empty string;
// the linker then falls back to a placeholder address.
func (p *OAuthProvider) getGitHubPrimaryEmail(
	ctx context.Context,
	token *oauth2.Token,
) (string, error) {
	var emails []githubEmail
	if err := p.get(ctx, token, "https://api.github.com/user/emails", &emails); err != nil {
		return "", err
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}
	for _, email := range emails {
		if email.Verified {
			return email.Email, nil
		}
	}
	return "", nil
}

// Twitter user info structure
type twitterUser struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func (p *OAuthProvider) fetchTwitterIdentity(
	ctx context.Context,
	token *oauth2.Token,
) (*models.ProviderIdentity, error) {
	var user twitterUser
	err := p.get(
		ctx,
		token,
		"https://api.twitter.com/2/users/me?user.fields=profile_image_url",
		&user,
	)
	if err != nil {
		return nil, err
	}

	// Twitter's v2 API does not expose the account email; the linker
	// substitutes a placeholder address when creating accounts.
	return &models.ProviderIdentity{
		Provider:       models.ProviderTwitter,
		ProviderUserID: user.Data.ID,
		Email:          "",
		Username:       user.Data.Username,
		DisplayName:    user.Data.Name,
		AvatarURL:      user.Data.ProfileImageURL,
	}, nil
}
