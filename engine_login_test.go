package marketauth

import (
	"context"
	"errors"
	"testing"

	"github.com/arvendel/marketauth/password"
	"github.com/arvendel/marketauth/role"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginSuccess(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	reg := mustRegister(t, engine, "alice@example.com", "", "password-123")

	res, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "password-123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Principal.ID != reg.Principal.ID {
		t.Fatal("login resolved wrong principal")
	}
	if res.Token == "" {
		t.Fatal("expected session token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	_, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "wrong-password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownIdentifierSameError(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)

	_, err := engine.Login(context.Background(), LoginInput{
		Identifier: "nobody@example.com",
		Password:   "password-123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	for i := 0; i < 6; i++ {
		_, _ = engine.Login(ctx, LoginInput{
			Identifier: "alice@example.com",
			Password:   "wrong-password",
		})
	}

	// Correct password is also rejected while the limit holds.
	_, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "password-123",
	})
	if !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("Login = %v, want ErrLoginRateLimited", err)
	}
}

func TestLoginSuccessResetsFailureBudget(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	mustRegister(t, engine, "alice@example.com", "", "password-123")

	for i := 0; i < 3; i++ {
		_, _ = engine.Login(ctx, LoginInput{
			Identifier: "alice@example.com",
			Password:   "wrong-password",
		})
	}
	if _, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "password-123",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// The counter was cleared, so a fresh burst of failures is tolerated.
	for i := 0; i < 3; i++ {
		_, _ = engine.Login(ctx, LoginInput{
			Identifier: "alice@example.com",
			Password:   "wrong-password",
		})
	}
	if _, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "password-123",
	}); err != nil {
		t.Fatalf("Login after reset failed: %v", err)
	}
}

func TestSuperadminLoginRequiresSecret(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	reg := mustRegister(t, engine, "root@example.com", "", "password-123")
	setRole(t, engine, reg.Principal.ID, role.Superadmin)

	_, err := engine.Login(ctx, LoginInput{
		Identifier: "root@example.com",
		Password:   "password-123",
	})
	if !errors.Is(err, ErrSuperadminSecret) {
		t.Fatalf("Login without secret = %v, want ErrSuperadminSecret", err)
	}

	_, err = engine.Login(ctx, LoginInput{
		Identifier:       "root@example.com",
		Password:         "password-123",
		SuperadminSecret: "not-the-secret",
	})
	if !errors.Is(err, ErrSuperadminSecret) {
		t.Fatalf("Login with wrong secret = %v, want ErrSuperadminSecret", err)
	}

	res, err := engine.Login(ctx, LoginInput{
		Identifier:       "root@example.com",
		Password:         "password-123",
		SuperadminSecret: "root-login-secret",
	})
	if err != nil {
		t.Fatalf("Login with secret failed: %v", err)
	}
	if res.Principal.Role != role.Superadmin {
		t.Fatalf("role = %s, want superadmin", res.Principal.Role)
	}
}

func TestSuperadminLoginBlockedWhenSecretUnset(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	engine.config.Superadmin.LoginSecret = ""
	ctx := context.Background()

	reg := mustRegister(t, engine, "root@example.com", "", "password-123")
	setRole(t, engine, reg.Principal.ID, role.Superadmin)

	_, err := engine.Login(ctx, LoginInput{
		Identifier:       "root@example.com",
		Password:         "password-123",
		SuperadminSecret: "",
	})
	if !errors.Is(err, ErrSuperadminSecret) {
		t.Fatalf("Login = %v, want ErrSuperadminSecret", err)
	}
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb)
	ctx := context.Background()

	reg := mustRegister(t, engine, "alice@example.com", "", "password-123")

	// Raise the configured cost above the stored hash's cost.
	upgraded, err := password.NewBcrypt(password.Config{Cost: bcrypt.MinCost + 1})
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	engine.passwordHash = upgraded

	before, err := engine.store.GetByID(ctx, reg.Principal.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if _, err := engine.Login(ctx, LoginInput{
		Identifier: "alice@example.com",
		Password:   "password-123",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	after, err := engine.store.GetByID(ctx, reg.Principal.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if after.PasswordHash == before.PasswordHash {
		t.Fatal("expected hash upgrade on login")
	}
	if cost, err := bcrypt.Cost([]byte(after.PasswordHash)); err != nil || cost != bcrypt.MinCost+1 {
		t.Fatalf("upgraded cost = %d err = %v", cost, err)
	}
}
