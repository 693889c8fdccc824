package marketauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arvendel/marketauth/internal/store"
	"github.com/google/uuid"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	phone := strings.TrimSpace(in.Phone)
	if email == "" && phone == "" {
		return nil, ErrIdentityRequired
	}

	hash, err := e.passwordHash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	now := e.nowTime().Unix()
	rec := &store.Principal{
		ID:           uuid.NewString(),
		Email:        email,
		Phone:        phone,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         e.config.Account.DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := e.store.Create(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateIdentity) {
			e.metricInc(MetricRegisterDuplicate)
			return nil, ErrDuplicateIdentity
		}
		return nil, mapStoreErr(err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.notifySend(ctx, rec.Contact(), TemplateWelcome, map[string]string{
		"name": rec.Name,
	})

	if !e.config.Account.AutoLogin {
		view := principalView(rec)
		return &AuthResult{Principal: view}, nil
	}
	return e.issueSession(rec)
}
