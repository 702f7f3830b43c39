package authkit

import (
	"context"
	"time"
)

// CredentialRecord is the credential row the host application returns from
// its [CredentialStore]. PasswordHash is an encoded bcrypt hash; plaintext
// passwords never appear in this package's types.
type CredentialRecord struct {
	UserID       string
	Email        string
	DisplayName  string
	PasswordHash string
}

// CredentialStore is the single interface callers must implement to integrate
// the engine with their user database. Lookup is by login identifier
// (normally the email address).
//
// Implementations return [ErrCredentialNotFound] for an unknown identifier.
// Any other error is treated as a store outage and surfaces to the caller as
// [ErrStoreUnavailable].
type CredentialStore interface {
	FindCredentialByIdentifier(ctx context.Context, identifier string) (CredentialRecord, error)
}

// AuthResult is returned by [Engine.Validate]. It contains the authenticated
// user's identity claims and the token's timing, never the token itself.
type AuthResult struct {
	UserID    string
	Email     string
	Name      string
	TokenID   string
	LineageID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
