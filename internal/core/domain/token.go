package domain

import "time"

// TokenType distinguishes the two artifacts of a token pair.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenPair is the result of a successful authentication: two independently
// signed artifacts with their own lifetimes.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	UserID           string
	IssuedAt         time.Time
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// BlacklistEntry marks a token as revoked until its natural expiry, after
// which the entry is logically absent.
type BlacklistEntry struct {
	Token         string
	TokenType     TokenType
	ExpireAt      time.Time
	BlacklistedAt time.Time
	Reason        string
}

// Expired reports whether the entry no longer needs to be retained.
func (e BlacklistEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpireAt)
}
