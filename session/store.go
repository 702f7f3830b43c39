package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport-level Redis failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrRefreshHashMismatch is the reuse signal: the presented secret is not the
// lineage's current one. The script has already revoked the lineage.
var ErrRefreshHashMismatch = errors.New("refresh hash mismatch")

// ErrLineageNotFound is returned when no record exists for the lineage ID.
var ErrLineageNotFound = errors.New("lineage not found")

// ErrLineageExpired is returned when the record exists but is past its TTL.
var ErrLineageExpired = errors.New("lineage expired")

// ErrLineageRevoked is returned when the lineage was already revoked.
var ErrLineageRevoked = errors.New("lineage revoked")

// ErrLineageCorrupt is returned when the stored blob cannot be parsed.
var ErrLineageCorrupt = errors.New("lineage record corrupt")

const (
	rotateStatusNotFound    int64 = 0
	rotateStatusExpired     int64 = 1
	rotateStatusMismatch    int64 = 2
	rotateStatusRotated     int64 = 3
	rotateStatusInvalidBlob int64 = 4
	rotateStatusRevoked     int64 = 5
)

// The script parses the v1 blob layout from encoder.go:
//
//	version(1) ulen(1) user elen(1) email state(1) hash(32)
//	createdAt(8) rotatedAt(8) expiresAt(8)
const rotateRefreshScript = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function state_offset(data)
  local version = string.byte(data, 1)
  if version ~= 1 then
    return nil
  end
  local user_len = string.byte(data, 2)
  if not user_len then
    return nil
  end
  local email_len = string.byte(data, 3 + user_len)
  if not email_len then
    return nil
  end
  local off = 4 + user_len + email_len
  if #data ~= off + 56 then
    return nil
  end
  return off
end

local key = KEYS[1]
local provided_hash = ARGV[1]
local next_hash = ARGV[2]
local now_unix = tonumber(ARGV[3])
local now_packed = ARGV[4]

local data = redis.call("GET", key)
if not data then
  return {0}
end

local state_off = state_offset(data)
if not state_off then
  return {4}
end

local expires_at = read_be64(data, state_off + 49)
if not expires_at or expires_at <= now_unix then
  redis.call("DEL", key)
  return {1}
end

if string.byte(data, state_off) ~= 0 then
  return {5}
end

local ttl = redis.call("PTTL", key)
if ttl <= 0 then
  redis.call("DEL", key)
  return {1}
end

local hash_off = state_off + 1
local stored_hash = string.sub(data, hash_off, hash_off + 31)
if stored_hash ~= provided_hash then
  local revoked = string.sub(data, 1, state_off - 1) .. string.char(1) .. string.sub(data, state_off + 1)
  redis.call("SET", key, revoked, "PX", ttl)
  return {2}
end

local rotated_off = state_off + 41
local updated = string.sub(data, 1, hash_off - 1)
  .. next_hash
  .. string.sub(data, hash_off + 32, rotated_off - 1)
  .. now_packed
  .. string.sub(data, rotated_off + 8)

redis.call("SET", key, updated, "PX", ttl)

return {3, updated}
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

const revokeLineageScript = `
local function state_offset(data)
  local version = string.byte(data, 1)
  if version ~= 1 then
    return nil
  end
  local user_len = string.byte(data, 2)
  if not user_len then
    return nil
  end
  local email_len = string.byte(data, 3 + user_len)
  if not email_len then
    return nil
  end
  local off = 4 + user_len + email_len
  if #data ~= off + 56 then
    return nil
  end
  return off
end

local key = KEYS[1]

local data = redis.call("GET", key)
if not data then
  return 0
end

local state_off = state_offset(data)
if not state_off then
  return -1
end

if string.byte(data, state_off) ~= 0 then
  return 1
end

local ttl = redis.call("PTTL", key)
if ttl <= 0 then
  redis.call("DEL", key)
  return 0
end

local revoked = string.sub(data, 1, state_off - 1) .. string.char(1) .. string.sub(data, state_off + 1)
redis.call("SET", key, revoked, "PX", ttl)
return 1
`

var revokeLineageLua = redis.NewScript(revokeLineageScript)

// Store is the Redis-backed lineage store. It handles persistence, atomic
// refresh rotation, lineage revocation, and the access-token revocation set.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

func NewStore(redis redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

func (s *Store) key(lineageID string) string {
	return s.prefix + ":lin:" + lineageID
}

func (s *Store) revokedAccessKey(tokenID string) string {
	return s.prefix + ":jti:" + tokenID
}

// Save persists a lineage record with the given TTL.
func (s *Store) Save(ctx context.Context, l *Lineage, ttl time.Duration) error {
	data, err := Encode(l)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(l.LineageID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get fetches a lineage without mutating any Redis state.
func (s *Store) Get(ctx context.Context, lineageID string) (*Lineage, error) {
	data, err := s.redis.Get(ctx, s.key(lineageID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLineageNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLineageCorrupt, err)
	}
	l.LineageID = lineageID

	if time.Now().Unix() >= l.ExpiresAt {
		return nil, ErrLineageExpired
	}

	return l, nil
}

// RotateRefreshHash atomically swaps the lineage's refresh hash using a Lua
// compare-and-swap. Under concurrent refreshes of the same token exactly one
// caller observes the rotated record; the rest get
// [ErrRefreshHashMismatch] and the script has already revoked the lineage.
func (s *Store) RotateRefreshHash(
	ctx context.Context,
	lineageID string,
	providedHash [32]byte,
	nextHash [32]byte,
) (*Lineage, error) {
	now := time.Now()
	var nowPacked [8]byte
	binary.BigEndian.PutUint64(nowPacked[:], uint64(now.Unix()))

	result, err := rotateRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.key(lineageID)},
		providedHash[:],
		nextHash[:],
		now.Unix(),
		nowPacked[:],
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}

	code, ok := parts[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid rotate script status", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return nil, ErrLineageNotFound
	case rotateStatusExpired:
		return nil, ErrLineageExpired
	case rotateStatusMismatch:
		return nil, ErrRefreshHashMismatch
	case rotateStatusRevoked:
		return nil, ErrLineageRevoked
	case rotateStatusRotated:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: missing updated lineage payload", ErrRedisUnavailable)
		}

		var blob []byte
		switch v := parts[1].(type) {
		case string:
			blob = []byte(v)
		case []byte:
			blob = v
		default:
			return nil, fmt.Errorf("%w: invalid updated lineage payload", ErrRedisUnavailable)
		}

		l, decErr := Decode(blob)
		if decErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrLineageCorrupt, decErr)
		}
		l.LineageID = lineageID
		return l, nil
	case rotateStatusInvalidBlob:
		return nil, ErrLineageCorrupt
	default:
		return nil, fmt.Errorf("%w: unknown rotate script status", ErrRedisUnavailable)
	}
}

// Revoke flips the lineage to the revoked state in place, preserving the TTL
// so the record keeps answering reuse attempts until natural expiry.
// Revoking an already revoked or missing lineage is a no-op.
func (s *Store) Revoke(ctx context.Context, lineageID string) error {
	result, err := revokeLineageLua.Run(ctx, s.redis, []string{s.key(lineageID)}).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	code, ok := result.(int64)
	if !ok {
		return fmt.Errorf("%w: invalid revoke script response", ErrRedisUnavailable)
	}
	if code < 0 {
		return ErrLineageCorrupt
	}

	return nil
}

// Delete removes a lineage record entirely.
func (s *Store) Delete(ctx context.Context, lineageID string) error {
	if err := s.redis.Del(ctx, s.key(lineageID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevokeAccessID records an access-token ID as revoked. TTL should cover the
// token's remaining lifetime; after that the token is dead on its own.
func (s *Store) RevokeAccessID(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.revokedAccessKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsAccessRevoked reports whether the access-token ID is in the revocation
// set.
func (s *Store) IsAccessRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.revokedAccessKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
