package authkit

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/ledgerkeep/authkit/internal"
)

func TestLoginIssuesBoundTokenPair(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	access, refresh := mustLogin(t, engine)

	res, err := engine.Validate(context.Background(), access, ModeLocal)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if res.UserID != "u1" || res.Email != "a@b.com" || res.Name != "Alice" {
		t.Fatalf("unexpected identity: %+v", res)
	}
	if res.TokenID == "" || res.LineageID == "" {
		t.Fatal("expected token and lineage identifiers")
	}

	ttl := res.ExpiresAt.Sub(res.IssuedAt)
	if ttl != time.Minute {
		t.Fatalf("unexpected access TTL: %v", ttl)
	}

	raw, err := base64.RawURLEncoding.DecodeString(refresh)
	if err != nil {
		t.Fatalf("refresh token is not base64url: %v", err)
	}
	if len(raw) != 16+internal.RefreshSecretSize {
		t.Fatalf("unexpected refresh token size: %d bytes", len(raw))
	}

	lineageID, _, err := internal.DecodeRefreshToken(refresh)
	if err != nil {
		t.Fatalf("decode refresh failed: %v", err)
	}
	if lineageID != res.LineageID {
		t.Fatal("expected refresh token to be bound to the access token's lineage")
	}
}

func TestLoginUnknownIdentifier(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	_, _, err := engine.Login(context.Background(), "nobody@b.com", "Secret123!")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	_, _, err := engine.Login(context.Background(), "a@b.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRejectsEmptyInput(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	if _, _, err := engine.Login(context.Background(), "", "Secret123!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := engine.Login(context.Background(), "a@b.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginMalformedStoredHash(t *testing.T) {
	creds := newTestCredentials(t)
	creds.put(CredentialRecord{
		UserID:       "u2",
		Email:        "b@b.com",
		PasswordHash: "not-a-bcrypt-hash",
	}, "b@b.com")

	engine, _, done := newTestEngine(t, testConfig(), creds)
	defer done()

	// A row with an unparsable hash must look like any other bad login from
	// the outside; only the audit trail carries the distinction.
	_, _, err := engine.Login(context.Background(), "b@b.com", "Secret123!")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if errors.Is(err, ErrHashingFailure) {
		t.Fatalf("malformed stored hash must not surface as a hashing failure: %v", err)
	}
	if Classify(err).HTTPStatus() != 401 {
		t.Fatalf("expected an unauthorized classification, got %v", Classify(err))
	}
}

func TestLoginMalformedStoredHashAuditReason(t *testing.T) {
	creds := newTestCredentials(t)
	creds.put(CredentialRecord{
		UserID:       "u2",
		Email:        "b@b.com",
		PasswordHash: "not-a-bcrypt-hash",
	}, "b@b.com")

	sink := NewChannelSink(8)
	engine, done := newTestEngineWithSinkAndCreds(t, testConfig(), sink, creds)
	defer done()

	_, _, _ = engine.Login(context.Background(), "b@b.com", "Secret123!")
	engine.Close()

	var found bool
	for _, event := range drainEvents(sink) {
		if event.EventType != "login_failure" {
			continue
		}
		found = true
		if event.Error != "invalid_credentials" {
			t.Fatalf("unexpected audit error code: %q", event.Error)
		}
		if event.Metadata["reason"] != "stored_hash_malformed" {
			t.Fatalf("unexpected audit reason: %q", event.Metadata["reason"])
		}
	}
	if !found {
		t.Fatal("missing login_failure audit event")
	}
}

func TestLoginStoreOutage(t *testing.T) {
	creds := newTestCredentials(t)
	creds.setFailure(errors.New("connection refused"))

	engine, _, done := newTestEngine(t, testConfig(), creds)
	defer done()

	_, _, err := engine.Login(context.Background(), "a@b.com", "Secret123!")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestLoginMetrics(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	mustLogin(t, engine)
	_, _, _ = engine.Login(context.Background(), "a@b.com", "wrong-password")

	snapshot := engine.MetricsSnapshot()
	if snapshot.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("unexpected login success count: %d", snapshot.Counters[MetricLoginSuccess])
	}
	if snapshot.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("unexpected login failure count: %d", snapshot.Counters[MetricLoginFailure])
	}
	if snapshot.Counters[MetricSessionCreated] != 1 {
		t.Fatalf("unexpected session created count: %d", snapshot.Counters[MetricSessionCreated])
	}
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	first, err := engine.HashPassword("NewSecret456!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	second, err := engine.HashPassword("NewSecret456!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct hashes for the same password")
	}

	if _, err := engine.HashPassword(""); !errors.Is(err, ErrHashingFailure) {
		t.Fatalf("expected ErrHashingFailure for empty password, got %v", err)
	}
}
