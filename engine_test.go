package authkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerkeep/authkit/password"
)

// memCredentialStore is the in-memory CredentialStore used across the engine
// tests. failWith injects a store outage.
type memCredentialStore struct {
	mu       sync.RWMutex
	users    map[string]CredentialRecord
	failWith error
}

func (s *memCredentialStore) FindCredentialByIdentifier(_ context.Context, identifier string) (CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failWith != nil {
		return CredentialRecord{}, s.failWith
	}

	rec, ok := s.users[identifier]
	if !ok {
		return CredentialRecord{}, ErrCredentialNotFound
	}
	return rec, nil
}

func (s *memCredentialStore) setFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *memCredentialStore) put(rec CredentialRecord, identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[identifier] = rec
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.JWT.AccessTTL = time.Minute
	cfg.JWT.Leeway = time.Second
	cfg.Session.RefreshTTL = time.Hour
	cfg.Password.Cost = 10
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestCredentials(t *testing.T) *memCredentialStore {
	t.Helper()

	hasher, err := password.NewHasher(password.Config{Cost: 10})
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	hash, err := hasher.Hash("Secret123!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	return &memCredentialStore{
		users: map[string]CredentialRecord{
			"a@b.com": {
				UserID:       "u1",
				Email:        "a@b.com",
				DisplayName:  "Alice",
				PasswordHash: hash,
			},
		},
	}
}

func newTestEngine(t *testing.T, cfg Config, creds CredentialStore) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(creds).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("engine build: %v", err)
	}

	done := func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}

	return engine, mr, done
}

func mustLogin(t *testing.T, engine *Engine) (string, string) {
	t.Helper()

	access, refresh, err := engine.Login(context.Background(), "a@b.com", "Secret123!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return access, refresh
}
