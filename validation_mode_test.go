package authkit

import (
	"context"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	authjwt "github.com/ledgerkeep/authkit/jwt"
)

func TestValidateModeInheritUsesConfigMode(t *testing.T) {
	cfg := testConfig()
	cfg.ValidationMode = ModeLocal

	engine, _, done := newTestEngine(t, cfg, newTestCredentials(t))
	defer done()

	access, _ := mustLogin(t, engine)

	if err := engine.Logout(context.Background(), access); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	// The config says local, so the inherited mode skips revocation checks.
	if _, err := engine.Validate(context.Background(), access, ModeInherit); err != nil {
		t.Fatalf("expected inherited local validation to pass, got %v", err)
	}

	// A per-call strict override still sees the revocation.
	if _, err := engine.Validate(context.Background(), access, ModeStrict); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestValidateStrictFailsClosedWhenStoreDown(t *testing.T) {
	engine, mr, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	access, _ := mustLogin(t, engine)

	mr.Close()

	if _, err := engine.Validate(context.Background(), access, ModeStrict); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	// Local validation keeps working without the store.
	if _, err := engine.Validate(context.Background(), access, ModeLocal); err != nil {
		t.Fatalf("expected local validation to pass, got %v", err)
	}
}

func TestValidateStrictRejectsOrphanedToken(t *testing.T) {
	cfg := testConfig()
	engine, mr, done := newTestEngine(t, cfg, newTestCredentials(t))
	defer done()

	access, _ := mustLogin(t, engine)

	res, err := engine.Validate(context.Background(), access, ModeLocal)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	mr.Del(cfg.Session.RedisPrefix + ":lin:" + res.LineageID)

	// An access token must not outlive its lineage.
	if _, err := engine.Validate(context.Background(), access, ModeStrict); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	access, _ := mustLogin(t, engine)

	if err := engine.Logout(context.Background(), access); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	// The zero value and arbitrary garbage are not valid modes; neither may
	// quietly fall through to a revocation-blind check on a revoked token.
	for _, mode := range []ValidationMode{0, 42, -7} {
		res, err := engine.Validate(context.Background(), access, mode)
		if !errors.Is(err, ErrInvalidValidationMode) {
			t.Fatalf("expected ErrInvalidValidationMode for mode %d, got %v", mode, err)
		}
		if res != nil {
			t.Fatalf("expected no result for mode %d", mode)
		}
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig(), newTestCredentials(t))
	defer done()

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		if _, err := engine.Validate(context.Background(), bad, ModeLocal); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid for %q, got %v", bad, err)
		}
	}
}

func TestValidateExpiredToken(t *testing.T) {
	cfg := testConfig()
	engine, _, done := newTestEngine(t, cfg, newTestCredentials(t))
	defer done()

	now := time.Now()
	claims := authjwt.Claims{
		LineageID: "lid-1",
		RegisteredClaims: gjwt.RegisteredClaims{
			ID:        "jti-1",
			Subject:   "u1",
			Issuer:    cfg.JWT.Issuer,
			Audience:  gjwt.ClaimStrings{cfg.JWT.Audience},
			IssuedAt:  gjwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: gjwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	expired, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(cfg.JWT.Secret)
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	if _, err := engine.Validate(context.Background(), expired, ModeLocal); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
