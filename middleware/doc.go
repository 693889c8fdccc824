// Package middleware exposes HTTP middleware adapters for session
// enforcement and role checks built on top of marketauth.Engine validation.
//
// # Guards
//
//   - [Guard] — validates the session token and injects the result.
//   - [RequireRole] — minimum-role gate on top of Guard's context.
//   - [RequireOwnerOrAdmin] — ownership-or-administrative-role gate.
//
// Each guard reads the Authorization header (falling back to the session
// cookie), calls Engine.Validate, and injects the validated result into the
// request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Validate and the role package predicates.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Reveal through its responses whether a resource exists when an
//     ownership check fails.
package middleware
