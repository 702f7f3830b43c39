package authkit

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown identifier or
	// a password mismatch. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCredentialNotFound is the sentinel a [CredentialStore] returns for an
	// unknown identifier. Login folds it into [ErrInvalidCredentials].
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrTokenInvalid covers bad signature, wrong algorithm, wrong
	// issuer/audience, and malformed token material.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a structurally valid access token is
	// outside its validity window.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned by revocation-aware validation for a token
	// whose jti or lineage has been revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRefreshReuse signals that a refresh token was presented after it was
	// rotated, revoked, or its lineage record disappeared. The whole lineage
	// is revoked as a side effect.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrStoreUnavailable is returned when the lineage/revocation store cannot
	// be reached within the configured timeout.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrEntropyUnavailable is returned when the secure random source fails.
	// There is no fallback source.
	ErrEntropyUnavailable = errors.New("entropy source unavailable")
	// ErrHashingFailure is returned when password hashing itself fails.
	ErrHashingFailure = errors.New("password hashing failure")
	// ErrEngineNotReady is returned when an Engine method is called before the
	// builder finished wiring mandatory dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidValidationMode is returned by Validate for a mode that is not
	// one of the named constants. Unknown modes never fall back to a weaker
	// check.
	ErrInvalidValidationMode = errors.New("invalid validation mode")
)
