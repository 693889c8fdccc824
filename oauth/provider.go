// Package oauth implements the federated login providers supported by the
// identity engine (Google, Facebook), normalizing each provider's token
// exchange and profile endpoint behind a single [Provider] interface.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Profile is a normalized account profile returned by a provider.
type Profile struct {
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
	EmailVerified  bool
}

// Provider defines a public interface used by marketauth APIs. Implementations
// wrap one upstream identity provider's authorization-code flow.
type Provider interface {
	// Name returns the stable provider key ("google", "facebook").
	Name() string
	// AuthCodeURL builds the upstream consent URL for the given state and
	// redirect URI.
	AuthCodeURL(state, redirectURI string) string
	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code, redirectURI string) (string, error)
	// FetchProfile loads the normalized profile for an access token.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// Config defines a public type used by marketauth APIs. It carries upstream
// client credentials plus endpoint overrides used in tests.
type Config struct {
	ClientID     string
	ClientSecret string

	// AuthURL, TokenURL and ProfileURL override the provider defaults.
	// Leave empty outside of tests.
	AuthURL    string
	TokenURL   string
	ProfileURL string

	// HTTPClient overrides the client used for upstream calls. A bounded
	// timeout is applied when nil.
	HTTPClient *http.Client
}

var errEmptyProviderID = errors.New("oauth: provider returned empty user id")

const upstreamTimeout = 10 * time.Second

func (c Config) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: upstreamTimeout}
}

// exchange runs the authorization-code exchange through x/oauth2 with the
// provider's endpoint and a caller-selected redirect URI.
func exchange(ctx context.Context, cfg Config, endpoint oauth2.Endpoint, scopes []string, code, redirectURI string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.client())

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}
	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("oauth: code exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("oauth: exchange returned empty access token")
	}
	return tok.AccessToken, nil
}

func authCodeURL(cfg Config, endpoint oauth2.Endpoint, scopes []string, state, redirectURI string) string {
	oc := &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: redirectURI,
		Scopes:      scopes,
		Endpoint:    endpoint,
	}
	return oc.AuthCodeURL(state)
}

// getJSON performs a bearer-authorized GET against a profile endpoint and
// decodes the response into out.
func getJSON(ctx context.Context, cfg Config, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("oauth: build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := cfg.client().Do(req)
	if err != nil {
		return fmt.Errorf("oauth: profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oauth: profile endpoint returned %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, 1<<20)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("oauth: decode profile: %w", err)
	}
	return nil
}
