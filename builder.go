package authkit

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerkeep/authkit/jwt"
	"github.com/ledgerkeep/authkit/password"
	"github.com/ledgerkeep/authkit/session"
)

// Builder assembles an [Engine]. Configure it once, call Build once.
type Builder struct {
	config Config
	redis  *redis.Client

	credentials CredentialStore
	auditSink   AuditSink

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithCredentialStore(cs CredentialStore) *Builder {
	b.credentials = cs
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. The builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.credentials == nil {
		return nil, errors.New("credential store required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix),
		credentials:  b.credentials,
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	ph, err := password.NewHasher(password.Config{
		Cost: cfg.Password.Cost,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	// Hashed once at startup so the unknown-identifier path in Login has a
	// real hash to verify against.
	sentinel, err := ph.Hash("authkit.sentinel.timing-equalization")
	if err != nil {
		return nil, err
	}
	engine.sentinelHash = sentinel

	jm, err := jwt.NewManager(jwt.Config{
		Secret:    cloneBytes(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		AccessTTL: cfg.JWT.AccessTTL,
		Leeway:    cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
