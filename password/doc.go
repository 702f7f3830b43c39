// Package password provides one-way password hashing with bcrypt and
// per-hash salts. Verification never distinguishes unknown-user from
// wrong-password to callers.
package password
