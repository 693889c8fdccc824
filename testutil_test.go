package marketauth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/arvendel/marketauth/internal/notify"
	"github.com/arvendel/marketauth/internal/rate"
	"github.com/arvendel/marketauth/internal/store"
	"github.com/arvendel/marketauth/oauth"
	"github.com/arvendel/marketauth/password"
	"github.com/arvendel/marketauth/role"
	"github.com/arvendel/marketauth/token"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var testTokenSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newTestHasher(t *testing.T) *password.Bcrypt {
	t.Helper()

	h, err := password.NewBcrypt(password.Config{Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	return h
}

func newTestTokens(t *testing.T) *token.Manager {
	t.Helper()

	tm, err := token.NewManager(token.Config{
		Secret:     testTokenSecret,
		SessionTTL: 30 * 24 * time.Hour,
		ResetTTL:   time.Hour,
		Issuer:     "marketauth-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return tm
}

func newTestEngine(t *testing.T, rdb *redis.Client) *Engine {
	t.Helper()

	cfg := defaultConfig()
	cfg.Token.Secret = testTokenSecret
	cfg.Password.Cost = bcrypt.MinCost
	cfg.OTP.EchoCodes = true
	cfg.Superadmin.LoginSecret = "root-login-secret"
	cfg.Superadmin.PromoteSecret = "root-promote-secret"
	cfg.OAuth.AllowedRedirectURIs = []string{"https://app.example.com/cb"}

	return &Engine{
		config:       cfg,
		store:        store.New(rdb, "mp"),
		passwordHash: newTestHasher(t),
		tokens:       newTestTokens(t),
		rateLimiter: rate.New(rdb, rate.Config{
			MaxLoginAttempts: 5,
			LoginCooldown:    time.Minute,
			MaxSendAttempts:  5,
			SendCooldown:     time.Minute,
		}),
		providers: map[string]oauth.Provider{},
		metrics:   NewMetrics(MetricsConfig{Enabled: true}),
	}
}

func withTestSink(t *testing.T, e *Engine, buffer int) *notify.ChannelSink {
	t.Helper()

	sink := notify.NewChannelSink(buffer)
	e.notifier = notify.NewDispatcher(notify.Config{
		Enabled:    true,
		BufferSize: buffer,
	}, sink)
	t.Cleanup(e.Close)
	return sink
}

func mustRegister(t *testing.T, e *Engine, email, phone, pass string) *AuthResult {
	t.Helper()

	res, err := e.Register(context.Background(), RegisterInput{
		Email:    email,
		Phone:    phone,
		Name:     "Test Account",
		Password: pass,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return res
}

func setRole(t *testing.T, e *Engine, id string, r role.Role) {
	t.Helper()

	if _, err := e.store.Update(context.Background(), id, func(p *store.Principal) error {
		p.Role = r
		return nil
	}); err != nil {
		t.Fatalf("setRole(%s, %s) failed: %v", id, r, err)
	}
}

// fakeProvider satisfies oauth.Provider without any network traffic.
type fakeProvider struct {
	name        string
	profile     *oauth.Profile
	exchangeErr error
	profileErr  error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) AuthCodeURL(state, redirectURI string) string {
	return "https://fake.example.com/authorize?state=" + state
}

func (f *fakeProvider) Exchange(_ context.Context, code, _ string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "fake-token-" + code, nil
}

func (f *fakeProvider) FetchProfile(context.Context, string) (*oauth.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}
