package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerkeep/authkit/internal"
	"github.com/ledgerkeep/authkit/jwt"
	"github.com/ledgerkeep/authkit/password"
	"github.com/ledgerkeep/authkit/session"
)

// Engine is the authentication engine: credential verification, token
// issuance, refresh rotation with reuse detection, and revocation-aware
// validation. Build one through [Builder]; all methods are safe for
// concurrent use afterwards.
type Engine struct {
	config       Config
	sessionStore *session.Store
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Hasher
	jwtManager   *jwt.Manager
	credentials  CredentialStore

	// sentinelHash is verified against when the identifier is unknown so the
	// response time matches the wrong-password path.
	sentinelHash string
}

// Close stops the audit dispatcher after draining buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events the dispatcher dropped because
// its buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.Store.Timeout)
}

func (e *Engine) storeUnavailable(err error) error {
	e.metricInc(MetricStoreUnavailable)
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Login verifies the identifier/password pair and starts a fresh refresh
// lineage. On success it returns the access token and the opaque refresh
// token. Unknown identifier and wrong password are indistinguishable in both
// the returned error and response timing.
func (e *Engine) Login(ctx context.Context, identifier, pass string) (string, string, error) {
	if e == nil || e.passwordHash == nil {
		return "", "", ErrEngineNotReady
	}

	if identifier == "" || pass == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "empty_input",
			}
		})
		return "", "", ErrInvalidCredentials
	}

	lookupCtx, cancel := e.storeCtx(ctx)
	record, err := e.credentials.FindCredentialByIdentifier(lookupCtx, identifier)
	cancel()
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			// Burn one verification anyway so unknown identifiers cost the
			// same wall time as a password mismatch.
			_, _ = e.passwordHash.Verify(pass, e.sentinelHash)
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrInvalidCredentials, func() map[string]string {
				return map[string]string{
					"reason": "unknown_identifier",
				}
			})
			return "", "", ErrInvalidCredentials
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrStoreUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "credential_lookup_failed",
			}
		})
		return "", "", e.storeUnavailable(err)
	}

	ok, err := e.passwordHash.Verify(pass, record.PasswordHash)
	if err != nil {
		// A stored hash that cannot be parsed is recovered into a plain
		// credential failure; the audit reason is the operator's signal to go
		// look at that row.
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, record.UserID, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "stored_hash_malformed",
			}
		})
		return "", "", ErrInvalidCredentials
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, record.UserID, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return "", "", ErrInvalidCredentials
	}
	pass = ""

	lid, err := internal.NewLineageID()
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, record.UserID, "", "", ErrEntropyUnavailable, nil)
		return "", "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	lineageID := lid.String()

	refreshSecret, err := internal.NewRefreshSecret()
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, record.UserID, lineageID, "", ErrEntropyUnavailable, nil)
		return "", "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	tokenID, err := uuid.NewRandom()
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, record.UserID, lineageID, "", ErrEntropyUnavailable, nil)
		return "", "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	now := time.Now()
	lineage := &session.Lineage{
		LineageID:   lineageID,
		UserID:      record.UserID,
		Email:       record.Email,
		State:       session.StateActive,
		RefreshHash: internal.HashRefreshSecret(refreshSecret),
		CreatedAt:   now.Unix(),
		RotatedAt:   now.Unix(),
		ExpiresAt:   now.Add(e.config.Session.RefreshTTL).Unix(),
	}

	saveCtx, cancel := e.storeCtx(ctx)
	err = e.sessionStore.Save(saveCtx, lineage, e.config.Session.RefreshTTL)
	cancel()
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, record.UserID, lineageID, "", ErrStoreUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "lineage_save_failed",
			}
		})
		return "", "", e.storeUnavailable(err)
	}

	access, err := e.jwtManager.Issue(record.UserID, record.Email, record.DisplayName, lineageID, tokenID.String())
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, record.UserID, lineageID, "", err, func() map[string]string {
			return map[string]string{
				"reason": "issue_access_failed",
			}
		})
		return "", "", err
	}

	refresh, err := internal.EncodeRefreshToken(lineageID, refreshSecret)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, record.UserID, lineageID, "", err, func() map[string]string {
			return map[string]string{
				"reason": "encode_refresh_failed",
			}
		})
		return "", "", err
	}

	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, record.UserID, lineageID, tokenID.String(), nil, nil)

	return access, refresh, nil
}

// Refresh rotates the refresh token. It accepts the pair's access token even
// when expired, but signature and pair binding are always enforced. A refresh
// token that was already rotated, or whose lineage is gone or revoked, is
// treated as reuse: the whole lineage is revoked and [ErrRefreshReuse] is
// returned. Concurrent refreshes of the same token produce exactly one
// winner.
func (e *Engine) Refresh(ctx context.Context, accessToken, refreshToken string) (string, string, error) {
	if e == nil || e.jwtManager == nil {
		return "", "", ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseExpired(accessToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", "", ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "access_token_rejected",
			}
		})
		return "", "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	lineageID, providedSecret, err := internal.DecodeRefreshToken(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, "", claims.ID, ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "refresh_decode_failed",
			}
		})
		return "", "", fmt.Errorf("%w: malformed refresh token", ErrTokenInvalid)
	}

	// Only the pair issued together may rotate.
	if claims.LineageID != lineageID {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, lineageID, claims.ID, ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "pair_mismatch",
			}
		})
		return "", "", fmt.Errorf("%w: token pair mismatch", ErrTokenInvalid)
	}

	nextSecret, err := internal.NewRefreshSecret()
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, lineageID, claims.ID, ErrEntropyUnavailable, nil)
		return "", "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	// Everything that can fail is done before the rotation, so a transient
	// failure never burns the old secret without handing out the new one.
	tokenID, err := uuid.NewRandom()
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, lineageID, claims.ID, ErrEntropyUnavailable, nil)
		return "", "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	refresh, err := internal.EncodeRefreshToken(lineageID, nextSecret)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, lineageID, claims.ID, err, func() map[string]string {
			return map[string]string{
				"reason": "encode_refresh_failed",
			}
		})
		return "", "", err
	}

	rotateCtx, cancel := e.storeCtx(ctx)
	lineage, err := e.sessionStore.RotateRefreshHash(
		rotateCtx,
		lineageID,
		internal.HashRefreshSecret(providedSecret),
		internal.HashRefreshSecret(nextSecret),
	)
	cancel()
	if err != nil {
		switch {
		case errors.Is(err, session.ErrRefreshHashMismatch),
			errors.Is(err, session.ErrLineageRevoked),
			errors.Is(err, session.ErrLineageNotFound):
			// The rotation script already revoked the lineage on mismatch;
			// for a missing record there is nothing left to revoke.
			e.metricInc(MetricRefreshReuseDetected)
			e.metricInc(MetricSessionRevoked)
			e.emitAudit(ctx, auditEventRefreshReuseDetected, false, claims.Subject, lineageID, claims.ID, ErrRefreshReuse, nil)
			return "", "", ErrRefreshReuse
		case errors.Is(err, session.ErrLineageExpired):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, lineageID, claims.ID, ErrTokenInvalid, func() map[string]string {
				return map[string]string{
					"reason": "lineage_expired",
				}
			})
			return "", "", fmt.Errorf("%w: lineage expired", ErrTokenInvalid)
		default:
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.Subject, lineageID, claims.ID, ErrStoreUnavailable, func() map[string]string {
				return map[string]string{
					"reason": "rotate_failed",
				}
			})
			return "", "", e.storeUnavailable(err)
		}
	}

	// Identity comes from the store; the display name rides on the verified
	// access token because the lineage record does not carry it.
	access, err := e.jwtManager.Issue(lineage.UserID, lineage.Email, claims.Name, lineageID, tokenID.String())
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, lineage.UserID, lineageID, "", err, func() map[string]string {
			return map[string]string{
				"reason": "issue_access_failed",
			}
		})
		return "", "", err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, lineage.UserID, lineageID, tokenID.String(), nil, nil)

	return access, refresh, nil
}

// Logout revokes the token's lineage and records its ID in the revocation
// set. Identifiers are extracted without signature verification so even a
// token that no longer validates still gets its session torn down. Logout is
// idempotent; repeating it is not an error.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if e == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}

	tokenID, lineageID, err := e.jwtManager.ExtractID(accessToken)
	if err != nil {
		e.emitAudit(ctx, auditEventLogoutSession, false, "", "", "", ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "undecodable_token",
			}
		})
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	storeCtx, cancel := e.storeCtx(ctx)
	defer cancel()

	if lineageID != "" {
		if err := e.sessionStore.Revoke(storeCtx, lineageID); err != nil {
			if !errors.Is(err, session.ErrLineageCorrupt) {
				e.emitAudit(ctx, auditEventLogoutSession, false, "", lineageID, tokenID, ErrStoreUnavailable, nil)
				return e.storeUnavailable(err)
			}
		}
	}

	// The revocation entry only needs to outlive the token itself.
	if err := e.sessionStore.RevokeAccessID(storeCtx, tokenID, e.config.JWT.AccessTTL+e.config.JWT.Leeway); err != nil {
		e.emitAudit(ctx, auditEventLogoutSession, false, "", lineageID, tokenID, ErrStoreUnavailable, nil)
		return e.storeUnavailable(err)
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventLogoutSession, true, "", lineageID, tokenID, nil, nil)

	return nil
}

// Validate checks an access token and returns its identity claims.
// [ModeLocal] verifies signature and claims only; [ModeStrict] additionally
// consults the revocation records and fails closed when the store is down.
// [ModeInherit] falls back to [Config.ValidationMode].
func (e *Engine) Validate(ctx context.Context, tokenStr string, mode ValidationMode) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	if mode == ModeInherit {
		mode = e.config.ValidationMode
	}
	switch mode {
	case ModeLocal, ModeStrict:
	default:
		// Unknown modes (the zero value included) must not degrade into a
		// revocation-blind check.
		return nil, ErrInvalidValidationMode
	}

	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	claims, err := e.jwtManager.ParseCurrent(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if mode == ModeStrict {
		storeCtx, cancel := e.storeCtx(ctx)
		defer cancel()

		revoked, err := e.sessionStore.IsAccessRevoked(storeCtx, claims.ID)
		if err != nil {
			return nil, e.storeUnavailable(err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}

		lineage, err := e.sessionStore.Get(storeCtx, claims.LineageID)
		switch {
		case err == nil:
			if lineage.State != session.StateActive {
				return nil, ErrTokenRevoked
			}
		case errors.Is(err, session.ErrLineageNotFound),
			errors.Is(err, session.ErrLineageExpired):
			// Fail closed: an access token must not outlive its lineage.
			return nil, ErrTokenRevoked
		default:
			return nil, e.storeUnavailable(err)
		}
	}

	return buildAuthResult(claims), nil
}

// HashPassword derives a storage-ready hash for a new credential. Hashing the
// same password twice yields different hashes; use the password package's
// verification, never string comparison.
func (e *Engine) HashPassword(pass string) (string, error) {
	if e == nil || e.passwordHash == nil {
		return "", ErrEngineNotReady
	}

	hash, err := e.passwordHash.Hash(pass)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}
	return hash, nil
}

func buildAuthResult(claims *jwt.Claims) *AuthResult {
	res := &AuthResult{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		TokenID:   claims.ID,
		LineageID: claims.LineageID,
	}
	if claims.IssuedAt != nil {
		res.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		res.ExpiresAt = claims.ExpiresAt.Time
	}
	return res
}
