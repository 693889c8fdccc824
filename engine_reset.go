package marketauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/arvendel/marketauth/internal"
	"github.com/arvendel/marketauth/internal/rate"
	"github.com/arvendel/marketauth/internal/store"
	"github.com/arvendel/marketauth/token"
)

// ResetRequestResult defines a public type used by marketauth APIs.
//
// ResetRequestResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ResetRequestResult struct {
	Sent bool `json:"sent"`
	// EchoToken carries the reset token only when OTP echo is enabled.
	EchoToken string `json:"echo_token,omitempty"`
}

// ForgotPassword describes the forgotpassword operation and its observable behavior.
//
// ForgotPassword may return an error when input validation, dependency calls, or security checks fail.
// ForgotPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ForgotPassword(ctx context.Context, identifier string) (*ResetRequestResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckSend(ctx, "reset", identifier); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricResetRateLimited)
				return nil, ErrResetRateLimited
			}
			return nil, mapStoreErr(err)
		}
	}

	rec, err := e.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, mapStoreErr(err)
	}

	challengeID, err := internal.NewChallengeID()
	if err != nil {
		return nil, err
	}

	now := e.nowTime()
	resetToken, err := e.tokens.IssueReset(rec.ID, challengeID, now)
	if err != nil {
		return nil, fmt.Errorf("issue reset token: %w", err)
	}

	expiresAt := now.Add(e.config.Token.ResetTTL).Unix()
	updated, err := e.store.Update(ctx, rec.ID, func(p *store.Principal) error {
		p.Reset = &store.ResetChallenge{
			Token:     challengeID,
			ExpiresAt: expiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricResetRequest)
	e.notifySend(ctx, updated.Contact(), TemplateResetLink, map[string]string{
		"token": resetToken,
	})

	res := &ResetRequestResult{Sent: true}
	if e.config.OTP.EchoCodes {
		res.EchoToken = resetToken
	}
	return res, nil
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.Verify(resetToken, token.PurposeReset)
	if err != nil {
		e.metricInc(MetricResetFailure)
		switch {
		case errors.Is(err, token.ErrExpired):
			return ErrResetExpired
		case errors.Is(err, token.ErrWrongPurpose):
			return ErrResetInvalid
		default:
			return ErrResetInvalid
		}
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	// The signature alone is not enough. The challenge id must still match
	// the stored record, which makes issued tokens single-use and revocable.
	now := e.nowTime().Unix()
	updated, err := e.store.Update(ctx, claims.Subject, func(p *store.Principal) error {
		if p.Reset == nil {
			return ErrResetInvalid
		}
		if now > p.Reset.ExpiresAt {
			return ErrResetExpired
		}
		if subtle.ConstantTimeCompare([]byte(p.Reset.Token), []byte(claims.ResetID)) != 1 {
			return ErrResetInvalid
		}
		p.PasswordHash = newHash
		p.Reset = nil
		p.OTP = nil
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrResetInvalid), errors.Is(err, ErrResetExpired):
			e.metricInc(MetricResetFailure)
			return err
		case errors.Is(err, store.ErrNotFound):
			e.metricInc(MetricResetFailure)
			return ErrResetInvalid
		default:
			return mapStoreErr(err)
		}
	}

	if e.rateLimiter != nil {
		_ = e.rateLimiter.ResetLogin(ctx, updated.Email, "")
		if updated.Phone != "" {
			_ = e.rateLimiter.ResetLogin(ctx, updated.Phone, "")
		}
	}

	e.metricInc(MetricResetSuccess)
	e.notifySend(ctx, updated.Contact(), TemplatePasswordChanged, nil)
	return nil
}

// ResetPasswordWithOTP describes the resetpasswordwithotp operation and its observable behavior.
//
// ResetPasswordWithOTP may return an error when input validation, dependency calls, or security checks fail.
// ResetPasswordWithOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResetPasswordWithOTP(ctx context.Context, identifier, code, newPassword string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	rec, err := e.consumeOTP(ctx, identifier, code)
	if err != nil {
		return err
	}

	updated, err := e.store.Update(ctx, rec.ID, func(p *store.Principal) error {
		p.PasswordHash = newHash
		p.Reset = nil
		return nil
	})
	if err != nil {
		return mapStoreErr(err)
	}

	e.metricInc(MetricResetSuccess)
	e.notifySend(ctx, updated.Contact(), TemplatePasswordChanged, nil)
	return nil
}
