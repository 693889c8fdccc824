package marketauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOTPLoginRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	sink := withTestSink(t, engine, 8)
	ctx := context.Background()

	reg := mustRegister(t, engine, "alice@example.com", "", "password-123")
	drainEvents(sink)

	sent, err := engine.SendOTP(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	if !sent.Sent || len(sent.EchoCode) != 6 {
		t.Fatalf("unexpected send result: %+v", sent)
	}

	res, err := engine.VerifyOTP(ctx, "alice@example.com", sent.EchoCode)
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if res.Principal.ID != reg.Principal.ID {
		t.Fatal("otp login resolved wrong principal")
	}
	if res.Token == "" {
		t.Fatal("expected session token")
	}
}

func TestOTPSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	sent, err := engine.SendOTP(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	if _, err := engine.VerifyOTP(ctx, "alice@example.com", sent.EchoCode); err != nil {
		t.Fatalf("first VerifyOTP failed: %v", err)
	}

	_, err = engine.VerifyOTP(ctx, "alice@example.com", sent.EchoCode)
	if !errors.Is(err, ErrNoChallenge) {
		t.Fatalf("replayed VerifyOTP = %v, want ErrNoChallenge", err)
	}
}

func TestOTPWrongCode(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	if _, err := engine.SendOTP(ctx, "alice@example.com"); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}

	_, err := engine.VerifyOTP(ctx, "alice@example.com", "000000")
	if !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("VerifyOTP = %v, want ErrOTPMismatch", err)
	}
}

func TestOTPExpires(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	sent, err := engine.SendOTP(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}

	engine.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	_, err = engine.VerifyOTP(ctx, "alice@example.com", sent.EchoCode)
	if !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("VerifyOTP = %v, want ErrOTPExpired", err)
	}
}

func TestOTPResendReplacesCode(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	first, err := engine.SendOTP(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("first SendOTP failed: %v", err)
	}
	second, err := engine.SendOTP(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("second SendOTP failed: %v", err)
	}

	if first.EchoCode != second.EchoCode {
		if _, err := engine.VerifyOTP(ctx, "alice@example.com", first.EchoCode); !errors.Is(err, ErrOTPMismatch) {
			t.Fatalf("stale code verify = %v, want ErrOTPMismatch", err)
		}
	}
	if _, err := engine.VerifyOTP(ctx, "alice@example.com", second.EchoCode); err != nil {
		t.Fatalf("fresh code verify failed: %v", err)
	}
}

func TestOTPSendRateLimited(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	var err error
	for i := 0; i < 6; i++ {
		_, err = engine.SendOTP(ctx, "alice@example.com")
	}
	if !errors.Is(err, ErrOTPRateLimited) {
		t.Fatalf("sixth SendOTP = %v, want ErrOTPRateLimited", err)
	}
}

func TestOTPUnknownIdentifier(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)

	_, err := engine.SendOTP(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("SendOTP = %v, want ErrPrincipalNotFound", err)
	}
}

func TestOTPEchoDisabled(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	engine.config.OTP.EchoCodes = false
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	sent, err := engine.SendOTP(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	if sent.EchoCode != "" {
		t.Fatal("code must not be echoed when echo is disabled")
	}
}

func drainEvents(sink interface{ Events() <-chan NotifyEvent }) {
	for {
		select {
		case <-sink.Events():
		default:
			return
		}
	}
}
