package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/screenpro/account-server/config"
)

type githubProvider struct {
	config *oauth2.Config
}

func newGithubProvider(cfg *config.OAuthProviderConfig) *githubProvider {
	return &githubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

func (g *githubProvider) Name() string {
	return ProviderGithub
}

func (g *githubProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

func (g *githubProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.config.Exchange(ctx, code)
}

func (g *githubProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	client := g.config.Client(ctx, token)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github api error: %s", string(body))
	}

	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	// The public email can be hidden; fall back to the primary address.
	if user.Email == "" {
		email, err := g.getPrimaryEmail(ctx, client)
		if err == nil {
			user.Email = email
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &Profile{
		UID:       fmt.Sprintf("%d", user.ID),
		Email:     user.Email,
		Name:      name,
		AvatarURL: user.AvatarURL,
	}, nil
}

func (g *githubProvider) getPrimaryEmail(ctx context.Context, client *http.Client) (string, error) {
	resp, err := client.Get("https://api.github.com/user/emails")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", nil
}

// Revoke deletes the OAuth app grant for this token.
func (g *githubProvider) Revoke(ctx context.Context, token string) error {
	body := fmt.Sprintf(`{"access_token":%q}`, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("https://api.github.com/applications/%s/grant", g.config.ClientID),
		strings.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.config.ClientID, g.config.ClientSecret)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("github revoke failed: status %d", resp.StatusCode)
	}
	return nil
}
