// Package store provides the Redis-backed principal store: durable account
// records plus the secondary indexes (email, phone, OAuth provider, role set,
// vendor request set) that keep lookups O(1).
//
// # Design
//
// Each principal is a JSON-encoded record under p:<id>. Identity indexes are
// written with SETNX so duplicate registration loses the race instead of
// clobbering an existing account. Mutations go through [Store.Update], a
// WATCH/MULTI optimistic transaction with automatic retry on contention, so
// concurrent writers never interleave partial states. The vendor request
// counter is a single INCR, which is atomic by itself.
//
// # Architecture boundaries
//
// This package owns persistence, indexing, and concurrency control for
// principal records. It does NOT hash passwords, mint tokens, or make
// authorization decisions — those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import marketauth or any sibling internal package.
//   - Log or expose password hashes or challenge secrets.
//   - Apply business rules inside mutate closures it runs for callers.
package store
