// Package authkit is the authentication and credential subsystem of the
// ledgerkeep personal-finance backend: short-lived signed access tokens,
// rotating opaque refresh tokens, Redis-backed revocation tracking, and
// one-way password hashing.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// the error taxonomy, and value types (AuthResult, AuditEvent,
// MetricsSnapshot). Session encoding, secret generation, and store plumbing
// live under internal/ and session/ and are never part of the host API.
//
// Persistence of domain entities (accounts, transactions, budgets) belongs to
// the host application; authkit only consumes a [CredentialStore] for
// credential lookup and owns the refresh-lineage and revocation records in
// Redis.
//
// # What this package must NOT do
//
//   - Log, return, or embed plaintext passwords, password hashes, or token
//     values in audit events or errors.
//   - Read configuration from ambient environment inside business logic; all
//     configuration is injected once through [Builder].
//   - Fall back to a weaker entropy source when crypto/rand fails.
package authkit
