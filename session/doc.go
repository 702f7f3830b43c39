// Package session provides Redis-backed refresh-lineage persistence and the
// compact binary encoding used on the refresh hot path.
//
// # Binary encoding
//
// Lineage records are stored as a compact binary blob (schema v1). The Lua
// rotation script parses the same layout server-side so the
// compare-and-rotate step is a single atomic round trip.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Lineage] model.
// It does NOT interpret access tokens or decide authentication outcomes;
// those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import authkit or jwt (no upward imports).
//   - Store a plaintext refresh secret; only its SHA-256 hash is persisted.
package session
