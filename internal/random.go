package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// LineageID identifies a refresh lineage: the chain of refresh tokens that
// descends from one login.
type LineageID [16]byte

const (
	// RefreshSecretSize is 64 bytes, 512 bits of entropy per token.
	RefreshSecretSize = 64

	refreshTokenRawSize = 16 + RefreshSecretSize
)

func NewLineageID() (LineageID, error) {
	var lid LineageID
	_, err := rand.Read(lid[:])
	return lid, err
}

func (l LineageID) Bytes() []byte {
	return l[:]
}

func (l LineageID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(l[:])
}

func ParseLineageID(lineageID string) (LineageID, error) {
	var lid LineageID

	raw, err := base64.RawURLEncoding.DecodeString(lineageID)
	if err != nil {
		return lid, err
	}
	if len(raw) != len(lid) {
		return lid, errors.New("invalid lineage id size")
	}

	copy(lid[:], raw)
	return lid, nil
}

func NewRefreshSecret() ([RefreshSecretSize]byte, error) {
	var secret [RefreshSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

// HashRefreshSecret is what the store persists. The plaintext secret exists
// only inside the encoded token handed to the client.
func HashRefreshSecret(secret [RefreshSecretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

// EncodeRefreshToken packs lineage id and secret into one opaque string. The
// client cannot use either half alone.
func EncodeRefreshToken(lineageID string, secret [RefreshSecretSize]byte) (string, error) {
	lid, err := ParseLineageID(lineageID)
	if err != nil {
		return "", err
	}

	var raw [refreshTokenRawSize]byte
	copy(raw[:len(lid)], lid[:])
	copy(raw[len(lid):], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

func DecodeRefreshToken(token string) (string, [RefreshSecretSize]byte, error) {
	var secret [RefreshSecretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", secret, err
	}
	if len(raw) != refreshTokenRawSize {
		return "", secret, errors.New("invalid refresh token size")
	}

	var lid LineageID
	copy(lid[:], raw[:len(lid)])
	copy(secret[:], raw[len(lid):])

	return lid.String(), secret, nil
}
