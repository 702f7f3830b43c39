package authkit

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want FailureKind
	}{
		{nil, KindNone},
		{ErrInvalidCredentials, KindInvalidCredentials},
		{ErrCredentialNotFound, KindInvalidCredentials},
		{ErrRefreshReuse, KindRefreshReuse},
		{ErrTokenExpired, KindTokenExpired},
		{ErrTokenInvalid, KindTokenInvalid},
		{ErrTokenRevoked, KindTokenInvalid},
		{ErrStoreUnavailable, KindStoreUnavailable},
		{ErrEntropyUnavailable, KindEntropyUnavailable},
		{ErrHashingFailure, KindHashingFailure},
		{errors.New("something else"), KindInternal},
	}

	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestClassifyUnwrapsChains(t *testing.T) {
	wrapped := fmt.Errorf("refresh: %w", ErrRefreshReuse)
	if got := Classify(wrapped); got != KindRefreshReuse {
		t.Fatalf("Classify(wrapped) = %v, want %v", got, KindRefreshReuse)
	}
}

func TestFailureKindHTTPStatus(t *testing.T) {
	cases := []struct {
		kind FailureKind
		want int
	}{
		{KindNone, http.StatusOK},
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindTokenInvalid, http.StatusUnauthorized},
		{KindTokenExpired, http.StatusUnauthorized},
		{KindRefreshReuse, http.StatusUnauthorized},
		{KindStoreUnavailable, http.StatusServiceUnavailable},
		{KindEntropyUnavailable, http.StatusServiceUnavailable},
		{KindHashingFailure, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.kind.HTTPStatus(); got != tc.want {
			t.Fatalf("%v.HTTPStatus() = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestFailureKindStringIsStable(t *testing.T) {
	// These labels end up in API responses and log lines; changing one is a
	// breaking change for consumers.
	cases := map[FailureKind]string{
		KindNone:               "none",
		KindInvalidCredentials: "invalid_credentials",
		KindTokenInvalid:       "token_invalid",
		KindTokenExpired:       "token_expired",
		KindRefreshReuse:       "refresh_token_reused",
		KindStoreUnavailable:   "store_unavailable",
		KindEntropyUnavailable: "entropy_source_unavailable",
		KindHashingFailure:     "hashing_failure",
		KindInternal:           "internal",
	}

	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
