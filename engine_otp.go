package marketauth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/arvendel/marketauth/internal"
	"github.com/arvendel/marketauth/internal/rate"
	"github.com/arvendel/marketauth/internal/store"
)

// OTPResult defines a public type used by marketauth APIs.
//
// OTPResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPResult struct {
	Sent bool `json:"sent"`
	// EchoCode carries the generated code only when OTP echo is enabled.
	EchoCode string `json:"echo_code,omitempty"`
}

// SendOTP describes the sendotp operation and its observable behavior.
//
// SendOTP may return an error when input validation, dependency calls, or security checks fail.
// SendOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SendOTP(ctx context.Context, identifier string) (*OTPResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckSend(ctx, "otp", identifier); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricOTPRateLimited)
				return nil, ErrOTPRateLimited
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

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return nil, err
	}
	expiresAt := e.nowTime().Add(e.config.OTP.TTL).Unix()

	// A fresh send replaces any outstanding code.
	updated, err := e.store.Update(ctx, rec.ID, func(p *store.Principal) error {
		p.OTP = &store.OTPChallenge{
			Code:      code,
			ExpiresAt: expiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricOTPSent)
	e.notifySend(ctx, updated.Contact(), TemplateOTPCode, map[string]string{
		"code": code,
	})

	res := &OTPResult{Sent: true}
	if e.config.OTP.EchoCodes {
		res.EchoCode = code
	}
	return res, nil
}

// VerifyOTP describes the verifyotp operation and its observable behavior.
//
// VerifyOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyOTP(ctx context.Context, identifier, code string) (*AuthResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.consumeOTP(ctx, identifier, code)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricOTPVerifySuccess)
	return e.issueSession(rec)
}

// consumeOTP validates and clears the outstanding code in one optimistic
// transaction, so a code can never be redeemed twice.
func (e *Engine) consumeOTP(ctx context.Context, identifier, code string) (*store.Principal, error) {
	rec, err := e.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.metricInc(MetricOTPVerifyFailure)
			return nil, ErrNoChallenge
		}
		return nil, mapStoreErr(err)
	}

	now := e.nowTime().Unix()
	updated, err := e.store.Update(ctx, rec.ID, func(p *store.Principal) error {
		if p.OTP == nil {
			return ErrNoChallenge
		}
		if now > p.OTP.ExpiresAt {
			p.OTP = nil
			return ErrOTPExpired
		}
		if subtle.ConstantTimeCompare([]byte(p.OTP.Code), []byte(code)) != 1 {
			return ErrOTPMismatch
		}
		p.OTP = nil
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoChallenge), errors.Is(err, ErrOTPExpired), errors.Is(err, ErrOTPMismatch):
			e.metricInc(MetricOTPVerifyFailure)
			return nil, err
		default:
			return nil, mapStoreErr(err)
		}
	}
	return updated, nil
}
