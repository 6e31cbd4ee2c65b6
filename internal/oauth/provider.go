package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"fitconnect/internal/user"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// Provider is an OAuth2 app plus the endpoint that tells us who signed in.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	// EmailsURL is consulted when the profile hides the e-mail address.
	EmailsURL string
	parse     func(body []byte) (user.OAuthIdentity, error)
}

func NewProvider(name string, cfg *oauth2.Config, userInfoURL string, parse func([]byte) (user.OAuthIdentity, error)) *Provider {
	return &Provider{Name: name, Config: cfg, UserInfoURL: userInfoURL, parse: parse}
}

func Google(clientID, clientSecret, redirectURL string) *Provider {
	return NewProvider(ProviderGoogle, &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}, "https://www.googleapis.com/oauth2/v3/userinfo", ParseGoogle)
}

func GitHub(clientID, clientSecret, redirectURL string) *Provider {
	p := NewProvider(ProviderGitHub, &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     github.Endpoint,
		Scopes:       []string{"read:user", "user:email"},
	}, "https://api.github.com/user", ParseGitHub)
	p.EmailsURL = "https://api.github.com/user/emails"
	return p
}

// ParseGoogle reads a Google userinfo document.
func ParseGoogle(body []byte) (user.OAuthIdentity, error) {
	var info struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return user.OAuthIdentity{}, err
	}
	return user.OAuthIdentity{Subject: info.Sub, Email: info.Email, FullName: info.Name, AvatarURL: info.Picture}, nil
}

func ParseGitHub(body []byte) (user.OAuthIdentity, error) {
	var info struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return user.OAuthIdentity{}, err
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}
	return user.OAuthIdentity{
		Subject:   strconv.FormatInt(info.ID, 10),
		Email:     info.Email,
		FullName:  name,
		AvatarURL: info.AvatarURL,
	}, nil
}

// Identity exchanges an authorization code and loads the user's profile.
func (p *Provider) Identity(ctx context.Context, code string) (user.OAuthIdentity, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return user.OAuthIdentity{}, fmt.Errorf("exchange code: %w", err)
	}

	client := p.Config.Client(ctx, token)

	body, err := fetch(ctx, client, p.UserInfoURL)
	if err != nil {
		return user.OAuthIdentity{}, fmt.Errorf("fetch profile: %w", err)
	}

	identity, err := p.parse(body)
	if err != nil {
		return user.OAuthIdentity{}, fmt.Errorf("parse profile: %w", err)
	}

	if identity.Email == "" && p.EmailsURL != "" {
		identity.Email, err = primaryEmail(ctx, client, p.EmailsURL)
		if err != nil {
			return user.OAuthIdentity{}, err
		}
	}

	if identity.Subject == "" || identity.Email == "" {
		return user.OAuthIdentity{}, ErrIncompleteProfile
	}
	return identity, nil
}

func primaryEmail(ctx context.Context, client *http.Client, url string) (string, error) {
	body, err := fetch(ctx, client, url)
	if err != nil {
		return "", fmt.Errorf("fetch emails: %w", err)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", fmt.Errorf("parse emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
