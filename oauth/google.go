package oauth

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleProfileURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var googleScopes = []string{"openid", "email", "profile"}

// Google implements [Provider] for Google sign-in.
type Google struct {
	cfg Config
}

func NewGoogle(cfg Config) *Google {
	return &Google{cfg: cfg}
}

func (g *Google) Name() string { return "google" }

func (g *Google) endpoint() oauth2.Endpoint {
	ep := google.Endpoint
	if g.cfg.AuthURL != "" {
		ep.AuthURL = g.cfg.AuthURL
	}
	if g.cfg.TokenURL != "" {
		ep.TokenURL = g.cfg.TokenURL
	}
	return ep
}

func (g *Google) AuthCodeURL(state, redirectURI string) string {
	return authCodeURL(g.cfg, g.endpoint(), googleScopes, state, redirectURI)
}

func (g *Google) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	return exchange(ctx, g.cfg, g.endpoint(), googleScopes, code, redirectURI)
}

func (g *Google) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	url := g.cfg.ProfileURL
	if url == "" {
		url = googleProfileURL
	}

	var raw struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := getJSON(ctx, g.cfg, url, accessToken, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		return nil, errEmptyProviderID
	}

	return &Profile{
		ProviderUserID: raw.ID,
		Email:          raw.Email,
		Name:           raw.Name,
		AvatarURL:      raw.Picture,
		EmailVerified:  raw.VerifiedEmail,
	}, nil
}
