// Package httpapi exposes the identity engine over HTTP.
//
// [NewServer] wraps a [marketauth.Engine] and [Server.Handler] returns the
// full route table on an [http.ServeMux]. Authentication uses bearer tokens
// or the session cookie; guarded routes are wired through the middleware
// package.
//
// # Components
//
//   - Server — stateless route table over one engine.
//   - render — JSON envelope and sentinel-to-status mapping.
//
// # What this package must NOT do
//
//   - Hold request state between calls — sessions live entirely in tokens.
//   - Leak wrapped error detail to clients — responses carry sentinel
//     messages only.
//   - Decide TLS or reverse-proxy trust policy — that belongs to the caller
//     deploying the handler.
package httpapi
