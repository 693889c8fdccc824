package marketauth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/arvendel/marketauth/internal/notify"
	"github.com/arvendel/marketauth/internal/rate"
	"github.com/arvendel/marketauth/internal/store"
	"github.com/arvendel/marketauth/oauth"
	"github.com/arvendel/marketauth/password"
	"github.com/arvendel/marketauth/role"
	"github.com/arvendel/marketauth/token"
)

// Engine defines a public type used by marketauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	store        *store.Store
	rateLimiter  *rate.Limiter
	tokens       *token.Manager
	passwordHash *password.Bcrypt
	providers    map[string]oauth.Provider
	notifier     *notify.Dispatcher
	metrics      *Metrics

	// now is replaceable for tests.
	now func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.notifier != nil {
		e.notifier.Close()
	}
}

// NotifyDropped describes the notifydropped operation and its observable behavior.
//
// NotifyDropped may return an error when input validation, dependency calls, or security checks fail.
// NotifyDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) NotifyDropped() uint64 {
	if e == nil || e.notifier == nil {
		return 0
	}
	return e.notifier.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) nowTime() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, sessionToken string) (*AuthResult, error) {
	if e == nil || e.tokens == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.Verify(sessionToken, token.PurposeSession)
	if err != nil {
		e.metricInc(MetricTokenValidateFailure)
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, token.ErrWrongPurpose):
			return nil, ErrTokenWrongPurpose
		default:
			return nil, ErrTokenInvalid
		}
	}

	// The role claim is advisory. The store record is authoritative so a
	// demotion takes effect before the token expires.
	rec, err := e.store.GetByID(ctx, claims.Subject)
	if err != nil {
		e.metricInc(MetricTokenValidateFailure)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricTokenValidateSuccess)
	return &AuthResult{
		Principal: principalView(rec),
		Token:     sessionToken,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// issueSession mints a session token for the principal and wraps it with the
// public view.
func (e *Engine) issueSession(p *store.Principal) (*AuthResult, error) {
	now := e.nowTime()
	tok, err := e.tokens.IssueSession(p.ID, p.Role.String(), now)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &AuthResult{
		Principal: principalView(p),
		Token:     tok,
		ExpiresAt: now.Add(e.config.Token.SessionTTL),
	}, nil
}

// lookupByIdentifier resolves an email or phone identifier to a principal.
func (e *Engine) lookupByIdentifier(ctx context.Context, identifier string) (*store.Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, store.ErrNotFound
	}
	if strings.Contains(identifier, "@") {
		return e.store.GetByEmail(ctx, identifier)
	}
	return e.store.GetByPhone(ctx, identifier)
}

func (e *Engine) notifySend(ctx context.Context, recipient, template string, data map[string]string) {
	if e == nil || e.notifier == nil || recipient == "" {
		return
	}
	e.notifier.Emit(ctx, notify.Event{
		At:        e.nowTime(),
		Template:  template,
		Recipient: recipient,
		Data:      data,
	})
}

// notifySuperadmins fans a notification out to every superadmin with a
// contact address. Lookup failures are logged and swallowed.
func (e *Engine) notifySuperadmins(ctx context.Context, template string, data map[string]string) {
	if e == nil || e.notifier == nil {
		return
	}

	ids, err := e.store.MembersByRole(ctx, role.Superadmin)
	if err != nil {
		log.Printf("marketauth: superadmin notify lookup failed: %v", err)
		return
	}
	for _, id := range ids {
		rec, err := e.store.GetByID(ctx, id)
		if err != nil {
			continue
		}
		e.notifySend(ctx, rec.Contact(), template, data)
	}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrPrincipalNotFound
	case errors.Is(err, store.ErrDuplicateIdentity):
		return ErrDuplicateIdentity
	case errors.Is(err, store.ErrTxConflict), errors.Is(err, store.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}
