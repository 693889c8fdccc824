package marketauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"

	"github.com/arvendel/marketauth/internal/rate"
	"github.com/arvendel/marketauth/internal/store"
	"github.com/arvendel/marketauth/role"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, in.Identifier, in.IP); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				return nil, ErrLoginRateLimited
			}
			return nil, mapStoreErr(err)
		}
	}

	rec, err := e.lookupByIdentifier(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn an attempt so enumeration and guessing cost the same.
			e.recordLoginFailure(ctx, in.Identifier, in.IP)
			return nil, ErrInvalidCredentials
		}
		return nil, mapStoreErr(err)
	}

	ok, err := e.passwordHash.Verify(in.Password, rec.PasswordHash)
	if err != nil || !ok {
		e.recordLoginFailure(ctx, in.Identifier, in.IP)
		return nil, ErrInvalidCredentials
	}

	if rec.Role == role.Superadmin {
		secret := e.config.Superadmin.LoginSecret
		if secret == "" ||
			subtle.ConstantTimeCompare([]byte(in.SuperadminSecret), []byte(secret)) != 1 {
			e.metricInc(MetricSuperadminSecretRejected)
			e.recordLoginFailure(ctx, in.Identifier, in.IP)
			return nil, ErrSuperadminSecret
		}
	}

	if e.config.Password.UpgradeOnLogin {
		e.maybeUpgradeHash(ctx, rec, in.Password)
	}

	if e.rateLimiter != nil {
		_ = e.rateLimiter.ResetLogin(ctx, in.Identifier, in.IP)
	}

	e.metricInc(MetricLoginSuccess)
	return e.issueSession(rec)
}

func (e *Engine) recordLoginFailure(ctx context.Context, identifier, ip string) {
	e.metricInc(MetricLoginFailure)
	if e.rateLimiter == nil {
		return
	}
	_ = e.rateLimiter.IncrementLogin(ctx, identifier, ip)
}

// maybeUpgradeHash rehashes the password at the configured cost after a
// successful verification against a weaker hash. Failures are logged and
// swallowed; the login already succeeded.
func (e *Engine) maybeUpgradeHash(ctx context.Context, rec *store.Principal, plaintext string) {
	needs, err := e.passwordHash.NeedsUpgrade(rec.PasswordHash)
	if err != nil || !needs {
		return
	}

	newHash, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		return
	}

	updated, err := e.store.Update(ctx, rec.ID, func(p *store.Principal) error {
		p.PasswordHash = newHash
		return nil
	})
	if err != nil {
		log.Printf("marketauth: hash upgrade failed for %s: %v", rec.ID, err)
		return
	}
	*rec = *updated
}
