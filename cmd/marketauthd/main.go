// Command marketauthd runs the marketplace identity service as a standalone
// HTTP server. All configuration comes from environment variables; see the
// envConfig struct for the full list.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	marketauth "github.com/arvendel/marketauth"
	"github.com/arvendel/marketauth/httpapi"
	"github.com/arvendel/marketauth/metrics/export/prometheus"
	"github.com/arvendel/marketauth/oauth"
	"github.com/arvendel/marketauth/role"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

type envConfig struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	StorePrefix   string `env:"STORE_PREFIX" envDefault:"mp"`

	TokenSecret string        `env:"TOKEN_SECRET,required"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"marketauth"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	ResetTTL    time.Duration `env:"RESET_TTL" envDefault:"1h"`

	BcryptCost int  `env:"BCRYPT_COST" envDefault:"10"`
	OTPEcho    bool `env:"OTP_ECHO"`

	SuperadminLoginSecret string `env:"SUPERADMIN_LOGIN_SECRET"`
	PromoteSecret         string `env:"PROMOTE_SECRET"`

	AllowedRedirectURIs []string `env:"OAUTH_REDIRECT_URIS" envSeparator:","`

	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`

	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	SecureCookies    bool `env:"SECURE_COOKIES" envDefault:"true"`
}

func main() {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		log.Fatalf("marketauthd: parse environment: %v", err)
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{ec.RedisAddr},
		Password: ec.RedisPassword,
	})
	defer func() { _ = rdb.Close() }()

	cfg := marketauth.Config{
		Token: marketauth.TokenConfig{
			Secret:     []byte(ec.TokenSecret),
			SessionTTL: ec.SessionTTL,
			ResetTTL:   ec.ResetTTL,
			Issuer:     ec.TokenIssuer,
			Leeway:     30 * time.Second,
		},
		Password: marketauth.PasswordConfig{
			Cost:           ec.BcryptCost,
			UpgradeOnLogin: true,
		},
		OTP: marketauth.OTPConfig{
			Digits:    6,
			TTL:       10 * time.Minute,
			EchoCodes: ec.OTPEcho,
		},
		OAuth: marketauth.OAuthConfig{
			AllowedRedirectURIs:  ec.AllowedRedirectURIs,
			RequireVerifiedEmail: true,
		},
		Superadmin: marketauth.SuperadminConfig{
			LoginSecret:   ec.SuperadminLoginSecret,
			PromoteSecret: ec.PromoteSecret,
		},
		Account: marketauth.AccountConfig{
			AutoLogin:   true,
			DefaultRole: role.User,
		},
		RateLimit: marketauth.RateLimitConfig{
			Enabled:          ec.RateLimitEnabled,
			EnableIPThrottle: ec.RateLimitEnabled,
			MaxLoginAttempts: 10,
			LoginCooldown:    5 * time.Minute,
			MaxSendAttempts:  5,
			SendCooldown:     15 * time.Minute,
		},
		Notify: marketauth.NotifyConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: marketauth.MetricsConfig{Enabled: true},
		Store:   marketauth.StoreConfig{Prefix: ec.StorePrefix},
	}

	builder := marketauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithNotifySink(marketauth.NewJSONNotifySink(os.Stdout))

	if ec.GoogleClientID != "" {
		builder.WithProvider(oauth.NewGoogle(oauth.Config{
			ClientID:     ec.GoogleClientID,
			ClientSecret: ec.GoogleClientSecret,
		}))
	}
	if ec.FacebookClientID != "" {
		builder.WithProvider(oauth.NewFacebook(oauth.Config{
			ClientID:     ec.FacebookClientID,
			ClientSecret: ec.FacebookClientSecret,
		}))
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatalf("marketauthd: build engine: %v", err)
	}
	defer engine.Close()

	api := httpapi.NewServer(engine, httpapi.Options{
		Metrics:       prometheus.NewPrometheusExporter(engine).Handler(),
		SecureCookies: ec.SecureCookies,
	})

	srv := &http.Server{
		Addr:              ec.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("marketauthd: listening on %s", ec.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("marketauthd: serve: %v", err)
		}
	case sig := <-stop:
		log.Printf("marketauthd: received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("marketauthd: shutdown: %v", err)
		}
	}
}
