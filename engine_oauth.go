package marketauth

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/arvendel/marketauth/internal"
	"github.com/arvendel/marketauth/internal/store"
	"github.com/arvendel/marketauth/oauth"
	"github.com/google/uuid"
)

// OAuthBeginURL describes the oauthbeginurl operation and its observable behavior.
//
// OAuthBeginURL may return an error when input validation, dependency calls, or security checks fail.
// OAuthBeginURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) OAuthBeginURL(provider, state, redirectURI string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	p, ok := e.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	if !e.redirectAllowed(redirectURI) {
		return "", ErrRedirectNotAllowed
	}
	return p.AuthCodeURL(state, redirectURI), nil
}

// LoginWithOAuth describes the loginwithoauth operation and its observable behavior.
//
// LoginWithOAuth may return an error when input validation, dependency calls, or security checks fail.
// LoginWithOAuth does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LoginWithOAuth(ctx context.Context, in OAuthInput) (*AuthResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	p, ok := e.providers[in.Provider]
	if !ok {
		e.metricInc(MetricOAuthFailure)
		return nil, ErrUnknownProvider
	}
	if !e.redirectAllowed(in.RedirectURI) {
		e.metricInc(MetricOAuthFailure)
		return nil, ErrRedirectNotAllowed
	}

	// Upstream failures collapse into one opaque error. The detail is
	// logged server-side and never reaches the caller.
	accessToken, err := p.Exchange(ctx, in.Code, in.RedirectURI)
	if err != nil {
		log.Printf("marketauth: oauth exchange via %s failed: %v", in.Provider, err)
		e.metricInc(MetricOAuthFailure)
		return nil, ErrOAuthFailed
	}
	profile, err := p.FetchProfile(ctx, accessToken)
	if err != nil {
		log.Printf("marketauth: oauth profile via %s failed: %v", in.Provider, err)
		e.metricInc(MetricOAuthFailure)
		return nil, ErrOAuthFailed
	}

	rec, err := e.resolveOAuthPrincipal(ctx, in.Provider, profile)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricOAuthSuccess)
	return e.issueSession(rec)
}

func (e *Engine) redirectAllowed(uri string) bool {
	for _, allowed := range e.config.OAuth.AllowedRedirectURIs {
		if uri == allowed {
			return true
		}
	}
	return false
}

// resolveOAuthPrincipal maps a provider profile onto an account: first by
// the provider index, then by email auto-link, then by creating a federated
// principal.
func (e *Engine) resolveOAuthPrincipal(ctx context.Context, provider string, profile *oauth.Profile) (*store.Principal, error) {
	rec, err := e.store.GetByProvider(ctx, provider, profile.ProviderUserID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, mapStoreErr(err)
	}

	email := strings.TrimSpace(strings.ToLower(profile.Email))
	if email != "" {
		rec, err = e.store.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if e.config.OAuth.RequireVerifiedEmail && !profile.EmailVerified {
				log.Printf("marketauth: refusing oauth link for unverified email via %s", provider)
				e.metricInc(MetricOAuthFailure)
				return nil, ErrOAuthFailed
			}
			return e.linkProvider(ctx, rec.ID, provider, profile)
		case errors.Is(err, store.ErrNotFound):
			// fall through to account creation
		default:
			return nil, mapStoreErr(err)
		}
	}

	return e.createFederatedPrincipal(ctx, provider, profile, email)
}

// linkProvider attaches the provider identity to an existing account and
// backfills profile fields that are still empty.
func (e *Engine) linkProvider(ctx context.Context, id, provider string, profile *oauth.Profile) (*store.Principal, error) {
	updated, err := e.store.Update(ctx, id, func(p *store.Principal) error {
		if p.Providers == nil {
			p.Providers = make(map[string]string, 1)
		}
		p.Providers[provider] = profile.ProviderUserID
		// A linked account is federated from here on, which also bars it
		// from ever holding superadmin.
		p.Federated = true
		if p.Name == "" {
			p.Name = profile.Name
		}
		if p.AvatarURL == "" {
			p.AvatarURL = profile.AvatarURL
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return updated, nil
}

func (e *Engine) createFederatedPrincipal(ctx context.Context, provider string, profile *oauth.Profile, email string) (*store.Principal, error) {
	if email == "" {
		// No usable identity to key the account on.
		e.metricInc(MetricOAuthFailure)
		return nil, ErrOAuthFailed
	}

	// Federated accounts never hold a caller-known password. A random one
	// keeps the record shape uniform while staying unguessable.
	randomPassword, err := internal.NewRandomPassword()
	if err != nil {
		return nil, err
	}
	hash, err := e.passwordHash.Hash(randomPassword)
	if err != nil {
		return nil, err
	}

	now := e.nowTime().Unix()
	rec := &store.Principal{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         profile.Name,
		AvatarURL:    profile.AvatarURL,
		PasswordHash: hash,
		Role:         e.config.Account.DefaultRole,
		Federated:    true,
		Providers:    map[string]string{provider: profile.ProviderUserID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := e.store.Create(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateIdentity) {
			// Lost a create race. The other writer owns the email now.
			if existing, lookupErr := e.store.GetByEmail(ctx, email); lookupErr == nil {
				return e.linkProvider(ctx, existing.ID, provider, profile)
			}
		}
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricOAuthAccountCreated)
	e.notifySend(ctx, rec.Contact(), TemplateWelcome, map[string]string{
		"name": rec.Name,
	})
	return rec, nil
}
