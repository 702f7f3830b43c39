package authkit

import (
	"errors"
	"net/http"
)

// FailureKind is the fixed classification of authentication failures that the
// surrounding request-handling layer maps to transport responses. It never
// carries credential or token material.
type FailureKind uint8

const (
	// KindNone means the error is nil.
	KindNone FailureKind = iota
	// KindInvalidCredentials covers identifier/password mismatches.
	KindInvalidCredentials
	// KindTokenInvalid covers signature, algorithm, format, and revocation
	// failures.
	KindTokenInvalid
	// KindTokenExpired covers tokens outside their validity window.
	KindTokenExpired
	// KindRefreshReuse covers detected refresh-token reuse. User-visible as
	// "session invalidated, please log in again".
	KindRefreshReuse
	// KindStoreUnavailable covers lineage/revocation store outages.
	KindStoreUnavailable
	// KindEntropyUnavailable covers secure-random failures.
	KindEntropyUnavailable
	// KindHashingFailure covers password hashing failures.
	KindHashingFailure
	// KindInternal is the catch-all for unclassified errors.
	KindInternal
)

// Classify maps an error returned by any Engine operation onto the failure
// taxonomy. It is a pure function; callers own logging and status mapping.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrCredentialNotFound):
		return KindInvalidCredentials
	case errors.Is(err, ErrRefreshReuse):
		return KindRefreshReuse
	case errors.Is(err, ErrTokenExpired):
		return KindTokenExpired
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenRevoked):
		return KindTokenInvalid
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrEntropyUnavailable):
		return KindEntropyUnavailable
	case errors.Is(err, ErrHashingFailure):
		return KindHashingFailure
	default:
		return KindInternal
	}
}

// HTTPStatus returns the transport status the boundary layer should use for
// the failure. Credential and token failures are all unauthorized so callers
// cannot probe which check rejected them.
func (k FailureKind) HTTPStatus() int {
	switch k {
	case KindNone:
		return http.StatusOK
	case KindInvalidCredentials, KindTokenInvalid, KindTokenExpired, KindRefreshReuse:
		return http.StatusUnauthorized
	case KindStoreUnavailable, KindEntropyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindTokenInvalid:
		return "token_invalid"
	case KindTokenExpired:
		return "token_expired"
	case KindRefreshReuse:
		return "refresh_token_reused"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindEntropyUnavailable:
		return "entropy_source_unavailable"
	case KindHashingFailure:
		return "hashing_failure"
	default:
		return "internal"
	}
}
