// Package internal holds engine-private helpers shared across the marketauth
// subpackages: challenge and secret generation primitives that must never be
// part of the public API surface.
package internal
