// Package middleware exposes HTTP middleware adapters for local and strict
// authorization enforcement built on top of authkit.Engine validation.
//
// # Guards
//
//   - [Guard] — auto-selects enforcement mode from Engine config.
//   - [RequireLocal] — stateless token verification, no Redis call.
//   - [RequireStrict] — token + revocation store verification.
//
// Each guard reads the Authorization header, calls Engine.Validate, and
// injects the validated identity into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Validate.
package middleware
