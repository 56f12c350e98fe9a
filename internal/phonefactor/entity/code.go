package entity

import "time"

// CodeDigest is the at-rest form of the one live verification code.
// The plaintext code is never persisted.
type CodeDigest struct {
	UserID   int64
	Digest   string
	IssuedAt time.Time
}

// Absent reports whether no code is currently issued for the user.
func (c CodeDigest) Absent() bool {
	return c.Digest == ""
}

// Stale reports whether the code is older than ttl. A zero ttl means codes
// never expire.
func (c CodeDigest) Stale(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || c.IssuedAt.IsZero() {
		return false
	}
	return now.Sub(c.IssuedAt) > ttl
}
