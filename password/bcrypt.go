package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	minCost = 10
	maxCost = 18
	// bcrypt truncates beyond 72 bytes; reject instead of silently weakening.
	maxPassBytes = 72
	minPassBytes = 1
)

// Config holds the bcrypt work factor.
type Config struct {
	Cost int
}

// Hasher hashes and verifies passwords. Safe for concurrent use.
type Hasher struct {
	config Config
}

func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost < minCost || cfg.Cost > maxCost {
		return nil, errors.New("password cost must be between 10 and 18")
	}

	return &Hasher{config: cfg}, nil
}

// Hash derives a salted hash of password. The salt is generated per call, so
// equal passwords produce distinct hashes.
func (h *Hasher) Hash(password string) (string, error) {
	// Raw string bytes exactly as provided, no Unicode normalization.
	if len(password) < minPassBytes {
		return "", errors.New("password must not be empty")
	}
	if len(password) > maxPassBytes {
		return "", errors.New("password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.config.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether password matches encodedHash. A mismatch is
// (false, nil); a hash that cannot be parsed is (false, err). The comparison
// inside bcrypt is constant-time.
func (h *Hasher) Verify(password string, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.config.Cost
}
