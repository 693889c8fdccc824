// Package token issues and verifies the signed, purpose-bound bearer tokens
// that prove a verified login (purpose "session") or an in-flight password
// recovery (purpose "password_reset").
//
// Session tokens are stateless: logout is client-side discard. Reset tokens
// are only half of the proof — the engine additionally matches the embedded
// challenge id against the one stored on the principal, which is what makes a
// consumed reset token unusable before its signature expires.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose defines a public type used by marketauth APIs.
//
// Purpose instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Purpose string

const (
	// PurposeSession is an exported constant or variable used by the identity engine.
	PurposeSession Purpose = "session"
	// PurposeReset is an exported constant or variable used by the identity engine.
	PurposeReset Purpose = "password_reset"
)

var (
	// ErrExpired is an exported constant or variable used by the identity engine.
	ErrExpired = errors.New("token expired")
	// ErrMalformed is an exported constant or variable used by the identity engine.
	ErrMalformed = errors.New("token malformed")
	// ErrWrongPurpose is an exported constant or variable used by the identity engine.
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// Config defines a public type used by marketauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Secret     []byte
	SessionTTL time.Duration
	ResetTTL   time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Claims defines a public type used by marketauth APIs.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	Purpose string `json:"pur"`
	Role    string `json:"rol,omitempty"`
	ResetID string `json:"rst,omitempty"`
	jwt.RegisteredClaims
}

// Manager defines a public type used by marketauth APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if cfg.SessionTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// IssueSession describes the issuesession operation and its observable behavior.
//
// IssueSession may return an error when input validation, dependency calls, or security checks fail.
// IssueSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) IssueSession(principalID, roleName string, now time.Time) (string, error) {
	claims := Claims{
		Purpose: string(PurposeSession),
		Role:    roleName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// IssueReset describes the issuereset operation and its observable behavior.
//
// IssueReset may return an error when input validation, dependency calls, or security checks fail.
// IssueReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) IssueReset(principalID, resetID string, now time.Time) (string, error) {
	claims := Claims{
		Purpose: string(PurposeReset),
		ResetID: resetID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.ResetTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Verify describes the verify operation and its observable behavior.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) Verify(tokenStr string, expected Purpose) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	if claims.Purpose != string(expected) {
		return nil, ErrWrongPurpose
	}

	return claims, nil
}
