package marketauth

import (
	"sync/atomic"
)

// MetricID defines a public type used by marketauth APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricRegisterSuccess is an exported constant or variable used by the identity engine.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate is an exported constant or variable used by the identity engine.
	MetricRegisterDuplicate
	// MetricLoginSuccess is an exported constant or variable used by the identity engine.
	MetricLoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the identity engine.
	MetricLoginFailure
	// MetricLoginRateLimited is an exported constant or variable used by the identity engine.
	MetricLoginRateLimited
	// MetricSuperadminSecretRejected is an exported constant or variable used by the identity engine.
	MetricSuperadminSecretRejected
	// MetricOTPSent is an exported constant or variable used by the identity engine.
	MetricOTPSent
	// MetricOTPVerifySuccess is an exported constant or variable used by the identity engine.
	MetricOTPVerifySuccess
	// MetricOTPVerifyFailure is an exported constant or variable used by the identity engine.
	MetricOTPVerifyFailure
	// MetricOTPRateLimited is an exported constant or variable used by the identity engine.
	MetricOTPRateLimited
	// MetricOAuthSuccess is an exported constant or variable used by the identity engine.
	MetricOAuthSuccess
	// MetricOAuthFailure is an exported constant or variable used by the identity engine.
	MetricOAuthFailure
	// MetricOAuthAccountCreated is an exported constant or variable used by the identity engine.
	MetricOAuthAccountCreated
	// MetricResetRequest is an exported constant or variable used by the identity engine.
	MetricResetRequest
	// MetricResetSuccess is an exported constant or variable used by the identity engine.
	MetricResetSuccess
	// MetricResetFailure is an exported constant or variable used by the identity engine.
	MetricResetFailure
	// MetricResetRateLimited is an exported constant or variable used by the identity engine.
	MetricResetRateLimited
	// MetricVendorRequestSubmitted is an exported constant or variable used by the identity engine.
	MetricVendorRequestSubmitted
	// MetricVendorRequestApproved is an exported constant or variable used by the identity engine.
	MetricVendorRequestApproved
	// MetricVendorRequestRejected is an exported constant or variable used by the identity engine.
	MetricVendorRequestRejected
	// MetricVendorPromoted is an exported constant or variable used by the identity engine.
	MetricVendorPromoted
	// MetricRoleChanged is an exported constant or variable used by the identity engine.
	MetricRoleChanged
	// MetricRoleChangeForbidden is an exported constant or variable used by the identity engine.
	MetricRoleChangeForbidden
	// MetricTokenValidateSuccess is an exported constant or variable used by the identity engine.
	MetricTokenValidateSuccess
	// MetricTokenValidateFailure is an exported constant or variable used by the identity engine.
	MetricTokenValidateFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by marketauth APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by marketauth APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics may return an error when input validation, dependency calls, or security checks fail.
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled may return an error when input validation, dependency calls, or security checks fail.
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
//
// Inc may return an error when input validation, dependency calls, or security checks fail.
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
//
// Value may return an error when input validation, dependency calls, or security checks fail.
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot may return an error when input validation, dependency calls, or security checks fail.
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
