package session

const (
	// StateActive means the lineage accepts its current refresh secret.
	StateActive uint8 = 0
	// StateRevoked means the lineage was killed by logout or reuse
	// detection. No member of it is ever accepted again.
	StateRevoked uint8 = 1
)

// Lineage is one refresh-token lineage: the chain of refresh tokens that
// descends from a single login. RefreshHash is the SHA-256 of the only
// currently acceptable secret; superseded secrets simply no longer match.
type Lineage struct {
	LineageID string
	UserID    string
	Email     string

	State       uint8
	RefreshHash [32]byte

	CreatedAt int64
	RotatedAt int64
	ExpiresAt int64
}
