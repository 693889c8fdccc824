// Package marketauth provides the identity core for a marketplace: password,
// OTP, and federated (Google/Facebook) authentication, signed session tokens,
// password recovery, role-based access control, and a vendor onboarding
// workflow with atomic request numbering. State lives in Redis.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// marketauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (AuthResult, Principal, VendorRequest, MetricsSnapshot).
// All internal coordination — the principal store, rate limiting, notification
// dispatch — lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal records, or encoding details in its
//     public API.
//   - Return password hashes or pending challenge material to callers.
//   - Import any sub-package that re-imports marketauth (no import cycles).
package marketauth
