package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/screenpro/account-server/config"
)

const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
	ProviderGithub = "github"
)

// Profile is the provider-agnostic identity we keep after sign-in.
type Profile struct {
	UID       string
	Email     string
	Name      string
	AvatarURL string
}

// Provider wraps one OAuth vendor: authorize URL, code exchange, profile
// fetch, and best-effort token revocation on sign-out.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error)
	Revoke(ctx context.Context, token string) error
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(cfg *config.OAuthConfig) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	r.providers[ProviderGoogle] = newGoogleProvider(&cfg.Google)
	r.providers[ProviderApple] = newAppleProvider(&cfg.Apple)
	r.providers[ProviderGithub] = newGithubProvider(&cfg.Github)
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %q", name)
	}
	return p, nil
}
