package marketauth

import (
	"errors"
	"time"

	"github.com/arvendel/marketauth/role"
)

// Config defines a public type used by marketauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token      TokenConfig
	Password   PasswordConfig
	OTP        OTPConfig
	OAuth      OAuthConfig
	Superadmin SuperadminConfig
	Account    AccountConfig
	RateLimit  RateLimitConfig
	Notify     NotifyConfig
	Metrics    MetricsConfig
	Store      StoreConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by marketauth APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	Secret     []byte
	SessionTTL time.Duration
	ResetTTL   time.Duration
	Issuer     string
	Leeway     time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by marketauth APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Cost           int
	UpgradeOnLogin bool
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by marketauth APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	Digits int
	TTL    time.Duration
	// EchoCodes returns generated codes to the caller instead of relying on
	// out-of-band delivery. Development convenience, never for production.
	EchoCodes bool
}

/*
====================================
OAUTH CONFIG
====================================
*/

// OAuthConfig defines a public type used by marketauth APIs.
//
// OAuthConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OAuthConfig struct {
	// AllowedRedirectURIs is the exact-match allow-list for callback targets.
	AllowedRedirectURIs []string
	// RequireVerifiedEmail blocks auto-linking a federated login to an
	// existing account when the provider has not verified the email.
	RequireVerifiedEmail bool
}

/*
====================================
SUPERADMIN CONFIG
====================================
*/

// SuperadminConfig defines a public type used by marketauth APIs.
//
// SuperadminConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SuperadminConfig struct {
	// LoginSecret must accompany every password login to a superadmin account.
	LoginSecret string
	// PromoteSecret gates the direct vendor promotion path.
	PromoteSecret string
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig defines a public type used by marketauth APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	AutoLogin   bool
	DefaultRole role.Role
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig defines a public type used by marketauth APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	MaxSendAttempts  int
	SendCooldown     time.Duration
}

/*
====================================
NOTIFY CONFIG
====================================
*/

// NotifyConfig defines a public type used by marketauth APIs.
//
// NotifyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NotifyConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by marketauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by marketauth APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	// Prefix namespaces every Redis key written by the engine.
	Prefix string
}

/*
====================================
DEFAULTS
====================================
*/

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SessionTTL: 30 * 24 * time.Hour,
			ResetTTL:   time.Hour,
			Issuer:     "marketauth",
			Leeway:     30 * time.Second,
		},
		Password: PasswordConfig{
			Cost:           10,
			UpgradeOnLogin: true,
		},
		OTP: OTPConfig{
			Digits: 6,
			TTL:    10 * time.Minute,
		},
		OAuth: OAuthConfig{
			RequireVerifiedEmail: true,
		},
		Account: AccountConfig{
			AutoLogin:   true,
			DefaultRole: role.User,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			EnableIPThrottle: true,
			MaxLoginAttempts: 10,
			LoginCooldown:    5 * time.Minute,
			MaxSendAttempts:  5,
			SendCooldown:     15 * time.Minute,
		},
		Notify: NotifyConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Store: StoreConfig{
			Prefix: "mp",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	if len(cfg.OAuth.AllowedRedirectURIs) > 0 {
		out.OAuth.AllowedRedirectURIs = append([]string(nil), cfg.OAuth.AllowedRedirectURIs...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be at least 32 bytes")
	}
	if c.Token.SessionTTL <= 0 {
		return errors.New("Token SessionTTL must be > 0")
	}
	if c.Token.ResetTTL <= 0 {
		return errors.New("Token ResetTTL must be > 0")
	}

	// OTP
	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 6 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.TTL > 15*time.Minute {
		return errors.New("OTP TTL must be <= 15m")
	}

	// Account
	if !c.Account.DefaultRole.Valid() {
		return errors.New("Account DefaultRole is invalid")
	}
	if c.Account.DefaultRole.IsAdministrative() {
		return errors.New("Account DefaultRole must not be administrative")
	}

	// Rate limiting
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginCooldown <= 0 {
			return errors.New("RateLimit LoginCooldown must be > 0")
		}
		if c.RateLimit.MaxSendAttempts <= 0 {
			return errors.New("RateLimit MaxSendAttempts must be > 0")
		}
		if c.RateLimit.SendCooldown <= 0 {
			return errors.New("RateLimit SendCooldown must be > 0")
		}
	}

	// Notify
	if c.Notify.Enabled && c.Notify.BufferSize < 0 {
		return errors.New("Notify BufferSize must be >= 0")
	}

	return nil
}
