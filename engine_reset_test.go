package marketauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordResetRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	req, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if !req.Sent || req.EchoToken == "" {
		t.Fatalf("unexpected request result: %+v", req)
	}

	if err := engine.ResetPassword(ctx, req.EchoToken, "new-password-456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	// Old password dead, new password live.
	if _, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "password-123",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password login = %v, want ErrInvalidCredentials", err)
	}
	if _, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "new-password-456",
	}); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}
}

func TestPasswordResetTokenSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	req, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if err := engine.ResetPassword(ctx, req.EchoToken, "new-password-456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	err = engine.ResetPassword(ctx, req.EchoToken, "another-password-789")
	if !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("replayed ResetPassword = %v, want ErrResetInvalid", err)
	}
}

func TestPasswordResetNewRequestRevokesOld(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	first, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("first ForgotPassword failed: %v", err)
	}
	second, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("second ForgotPassword failed: %v", err)
	}

	if err := engine.ResetPassword(ctx, first.EchoToken, "new-password-456"); !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("superseded token = %v, want ErrResetInvalid", err)
	}
	if err := engine.ResetPassword(ctx, second.EchoToken, "new-password-456"); err != nil {
		t.Fatalf("current token failed: %v", err)
	}
}

func TestPasswordResetExpires(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	req, err := engine.ForgotPassword(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	engine.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	err = engine.ResetPassword(ctx, req.EchoToken, "new-password-456")
	if !errors.Is(err, ErrResetExpired) {
		t.Fatalf("ResetPassword = %v, want ErrResetExpired", err)
	}
}

func TestPasswordResetGarbageToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)

	err := engine.ResetPassword(context.Background(), "not-a-token", "new-password-456")
	if !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("ResetPassword = %v, want ErrResetInvalid", err)
	}
}

func TestPasswordResetRejectsSessionToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	reg := mustRegister(t, engine, "alice@example.com", "", "password-123")

	err := engine.ResetPassword(ctx, reg.Token, "new-password-456")
	if !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("ResetPassword with session token = %v, want ErrResetInvalid", err)
	}
}

func TestPasswordResetWithOTP(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	sent, err := engine.SendOTP(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	if err := engine.ResetPasswordWithOTP(ctx, "alice@example.com", sent.EchoCode, "new-password-456"); err != nil {
		t.Fatalf("ResetPasswordWithOTP failed: %v", err)
	}

	if _, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "new-password-456",
	}); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}

	// The consumed code cannot reset again.
	err = engine.ResetPasswordWithOTP(ctx, "alice@example.com", sent.EchoCode, "another-password-789")
	if !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("replayed reset = %v, want ErrNoChallenge", err)
	}
}

func TestForgotPasswordRateLimited(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	var err error
	for i := 0; i < 6; i++ {
		_, err = engine.ForgotPassword(ctx, "alice@example.com")
	}
	if !errors.Is(err, ErrResetRateLimited) {
		t.Fatalf("sixth ForgotPassword = %v, want ErrResetRateLimited", err)
	}
}
