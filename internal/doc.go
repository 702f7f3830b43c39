// Package internal contains helper utilities that are intentionally private
// to authkit, primarily secure random generation and the opaque refresh-token
// encoding.
//
// # What this package must NOT do
//
//   - Export types that appear in the public authkit API.
//   - Be imported by any package outside the authkit module.
//   - Substitute a weaker source when crypto/rand fails.
package internal
