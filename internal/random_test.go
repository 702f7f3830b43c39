package internal

import (
	"strings"
	"testing"
)

func TestLineageIDRoundTrip(t *testing.T) {
	lid, err := NewLineageID()
	if err != nil {
		t.Fatalf("NewLineageID error: %v", err)
	}

	encoded := lid.String()
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("expected raw base64url encoding, got %q", encoded)
	}

	parsed, err := ParseLineageID(encoded)
	if err != nil {
		t.Fatalf("ParseLineageID error: %v", err)
	}
	if parsed != lid {
		t.Fatal("round trip changed the lineage id")
	}
}

func TestParseLineageIDRejectsBadInput(t *testing.T) {
	if _, err := ParseLineageID("not base64!!"); err == nil {
		t.Fatal("expected invalid encoding to be rejected")
	}
	if _, err := ParseLineageID("c2hvcnQ"); err == nil {
		t.Fatal("expected wrong-size input to be rejected")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	lid, err := NewLineageID()
	if err != nil {
		t.Fatalf("NewLineageID error: %v", err)
	}
	secret, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("NewRefreshSecret error: %v", err)
	}

	token, err := EncodeRefreshToken(lid.String(), secret)
	if err != nil {
		t.Fatalf("EncodeRefreshToken error: %v", err)
	}

	gotLineage, gotSecret, err := DecodeRefreshToken(token)
	if err != nil {
		t.Fatalf("DecodeRefreshToken error: %v", err)
	}
	if gotLineage != lid.String() {
		t.Fatal("lineage id changed in round trip")
	}
	if gotSecret != secret {
		t.Fatal("secret changed in round trip")
	}
}

func TestDecodeRefreshTokenRejectsWrongSize(t *testing.T) {
	lid, err := NewLineageID()
	if err != nil {
		t.Fatalf("NewLineageID error: %v", err)
	}
	secret, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("NewRefreshSecret error: %v", err)
	}

	token, err := EncodeRefreshToken(lid.String(), secret)
	if err != nil {
		t.Fatalf("EncodeRefreshToken error: %v", err)
	}

	if _, _, err := DecodeRefreshToken(token[:len(token)-4]); err == nil {
		t.Fatal("expected truncated token to be rejected")
	}
	if _, _, err := DecodeRefreshToken("!!!not-base64!!!"); err == nil {
		t.Fatal("expected invalid encoding to be rejected")
	}
}

func TestHashRefreshSecretIsDeterministic(t *testing.T) {
	secret, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("NewRefreshSecret error: %v", err)
	}

	if HashRefreshSecret(secret) != HashRefreshSecret(secret) {
		t.Fatal("expected stable hash for the same secret")
	}

	other, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("NewRefreshSecret error: %v", err)
	}
	if HashRefreshSecret(secret) == HashRefreshSecret(other) {
		t.Fatal("expected distinct hashes for distinct secrets")
	}
}
