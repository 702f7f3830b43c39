package authkit

import (
	"errors"
	"time"
)

// Config defines all tunables of the authentication engine.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable. [Builder.Build] copies the config; later
// mutation of the caller's value has no effect.
type Config struct {
	JWT            JWTConfig
	Session        SessionConfig
	Password       PasswordConfig
	Store          StoreConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
	ValidationMode ValidationMode
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the access-token signing parameters. Signing is HMAC-SHA256
// only; Secret must be at least 32 bytes.
type JWTConfig struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	Leeway    time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig holds the refresh-lineage storage parameters.
type SessionConfig struct {
	RedisPrefix string
	RefreshTTL  time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the bcrypt work factor.
type PasswordConfig struct {
	Cost int
}

// StoreConfig bounds every round trip to the session store. A store that does
// not answer within Timeout surfaces as [ErrStoreUnavailable], never as a
// credential or token failure.
type StoreConfig struct {
	Timeout time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// ValidationMode selects how [Engine.Validate] treats revocation state.
type ValidationMode int

const (
	// ModeInherit makes a per-call mode fall back to [Config.ValidationMode].
	ModeInherit ValidationMode = -1

	// ModeLocal validates signature and claims only. No store round trip, so
	// a token revoked by logout stays acceptable until it expires.
	ModeLocal ValidationMode = iota
	// ModeStrict additionally checks the revocation records in the store.
	ModeStrict
)

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Issuer:    "ledgerkeep",
			Audience:  "ledgerkeep-api",
			AccessTTL: time.Hour,
			Leeway:    30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "aks",
			RefreshTTL:  30 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Cost: 12,
		},
		Store: StoreConfig{
			Timeout: 3 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		ValidationMode: ModeStrict,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the config for values the engine refuses to run with.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if c.JWT.Issuer == "" {
		return errors.New("JWT Issuer is required")
	}
	if c.JWT.Audience == "" {
		return errors.New("JWT Audience is required")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix is required")
	}
	if c.Session.RefreshTTL <= 0 {
		return errors.New("Session RefreshTTL must be > 0")
	}
	if c.Session.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("Session RefreshTTL must exceed JWT AccessTTL")
	}

	// Password
	if c.Password.Cost < 10 || c.Password.Cost > 18 {
		return errors.New("Password Cost must be between 10 and 18")
	}

	// Store
	if c.Store.Timeout <= 0 {
		return errors.New("Store Timeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	switch c.ValidationMode {
	case ModeLocal, ModeStrict:
		// valid
	default:
		return errors.New("invalid ValidationMode")
	}

	return nil
}
