// Package rate provides Redis-backed fixed-window rate limiting for
// security-sensitive identity workflows.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - mrl:u:  — login per-identifier
//   - mrl:ip: — login per-IP
//   - mrl:s:  — challenge sends per kind (otp, reset)
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in the engine).
//   - Be imported outside the marketauth module.
package rate
