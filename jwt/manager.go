package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned when the token's signature verifies but the
	// token is outside its validity window.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers every other verification failure: bad signature,
	// unexpected algorithm, wrong issuer or audience, malformed input.
	ErrInvalid = errors.New("token invalid")
)

// Config holds the signing parameters. Signing is HMAC-SHA256 only; tokens
// carrying any other alg header are rejected before signature verification.
type Config struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	Leeway    time.Duration
}

// Manager issues and verifies access tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// Claims is the access-token payload. LineageID binds the token to the
// refresh lineage it was minted with.
type Claims struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	LineageID string `json:"lid"`
	jwt.RegisteredClaims
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("issuer and audience are required")
	}

	return &Manager{config: cfg}, nil
}

// Issue signs a new access token. The caller supplies the token ID so that
// identifier generation (and its failure mode) stays under the engine's
// control.
func (j *Manager) Issue(userID, email, name, lineageID, tokenID string) (string, error) {
	if userID == "" || lineageID == "" || tokenID == "" {
		return "", errors.New("userID, lineageID, and tokenID are required")
	}

	now := time.Now()
	claims := Claims{
		Name:      name,
		Email:     email,
		LineageID: lineageID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			Issuer:    j.config.Issuer,
			Audience:  jwt.ClaimStrings{j.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.AccessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.config.Secret)
}

// ParseCurrent verifies signature, algorithm, issuer, audience, and the
// validity window. Errors map onto [ErrExpired] and [ErrInvalid].
func (j *Manager) ParseCurrent(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.config.Issuer),
		jwt.WithAudience(j.config.Audience),
		jwt.WithExpirationRequired(),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, j.keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalid)
	}

	return claims, nil
}

// ParseExpired verifies everything ParseCurrent does except the validity
// window. It exists for refresh, which accepts the expired access token of
// the pair. Signature and algorithm checks are never relaxed.
func (j *Manager) ParseExpired(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, j.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalid
	}
	if claims.Issuer != j.config.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalid)
	}
	if !containsAudience(claims.Audience, j.config.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalid)
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalid)
	}

	return claims, nil
}

// ExtractID decodes the token ID and lineage ID without verifying the
// signature. Logout uses it to record revocations even for tampered tokens;
// nothing security-positive may ever depend on the result.
func (j *Manager) ExtractID(tokenStr string) (tokenID, lineageID string, err error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.ID == "" {
		return "", "", fmt.Errorf("%w: missing jti", ErrInvalid)
	}
	return claims.ID, claims.LineageID, nil
}

func (j *Manager) keyfunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	return j.config.Secret, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
