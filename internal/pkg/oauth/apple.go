package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/screenpro/account-server/config"
)

// x/oauth2 ships no Apple endpoint; Sign in with Apple uses these URLs.
var appleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://appleid.apple.com/auth/authorize",
	TokenURL: "https://appleid.apple.com/auth/token",
}

type appleProvider struct {
	config *oauth2.Config
}

func newAppleProvider(cfg *config.OAuthProviderConfig) *appleProvider {
	return &appleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"name", "email"},
			Endpoint:     appleEndpoint,
		},
	}
}

func (a *appleProvider) Name() string {
	return ProviderApple
}

func (a *appleProvider) AuthCodeURL(state string) string {
	// Apple requires response_mode=form_post when scopes are requested.
	return a.config.AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "form_post"))
}

func (a *appleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return a.config.Exchange(ctx, code)
}

// FetchProfile reads identity claims from the id_token that rides along with
// the token response. The token came straight from Apple's token endpoint
// over TLS, so the signature is not re-verified here.
func (a *appleProvider) FetchProfile(_ context.Context, token *oauth2.Token) (*Profile, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("apple token response missing id_token")
	}

	parser := gojwt.NewParser()
	claims := gojwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(rawIDToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("id_token missing sub claim")
	}
	email, _ := claims["email"].(string)

	return &Profile{
		UID:   sub,
		Email: email,
		// Apple only sends the name on first authorization, inside the form
		// post body, not the id_token; the account keeps the email-derived
		// fallback until the client supplies one.
		Name: strings.Split(email, "@")[0],
	}, nil
}

func (a *appleProvider) Revoke(ctx context.Context, token string) error {
	form := url.Values{
		"client_id":       {a.config.ClientID},
		"client_secret":   {a.config.ClientSecret},
		"token":           {token},
		"token_type_hint": {"access_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://appleid.apple.com/auth/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("apple revoke failed: status %d", resp.StatusCode)
	}
	return nil
}
