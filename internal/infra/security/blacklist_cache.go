package security

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/repository"
)

// ErrEmptyToken is returned when a blacklist operation receives an empty
// token string.
var ErrEmptyToken = errors.New("blacklist: token is required")

type blacklistEntry struct {
	TokenType     domain.TokenType
	ExpireAt      time.Time
	BlacklistedAt time.Time
	Reason        string
}

// BlacklistCache is an in-memory BlacklistStore used in tests and as a
// degraded-mode fallback when Redis is unavailable. Entries expire with the
// token they revoke and are lazily pruned on access.
type BlacklistCache struct {
	mu         sync.RWMutex
	entries    map[string]blacklistEntry
	maxEntries int
	now        func() time.Time
}

// NewBlacklistCache constructs an empty cache. maxEntries bounds memory; zero
// means unbounded.
func NewBlacklistCache(maxEntries int) *BlacklistCache {
	return &BlacklistCache{
		entries:    make(map[string]blacklistEntry),
		maxEntries: maxEntries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic testing.
func (c *BlacklistCache) WithClock(now func() time.Time) *BlacklistCache {
	if now != nil {
		c.mu.Lock()
		c.now = now
		c.mu.Unlock()
	}
	return c
}

// Add records a revoked token until its expiry. Tokens already expired are a
// no-op; tokens already present yield repository.ErrAlreadyBlacklisted.
func (c *BlacklistCache) Add(_ context.Context, entry domain.BlacklistEntry) error {
	if entry.Token == "" {
		return ErrEmptyToken
	}

	now := c.currentTime()
	if entry.Expired(now) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[entry.Token]; ok && now.Before(existing.ExpireAt) {
		return repository.ErrAlreadyBlacklisted
	}

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked(len(c.entries) - c.maxEntries + 1)
	}

	c.entries[entry.Token] = blacklistEntry{
		TokenType:     entry.TokenType,
		ExpireAt:      entry.ExpireAt.UTC(),
		BlacklistedAt: entry.BlacklistedAt.UTC(),
		Reason:        entry.Reason,
	}
	return nil
}

// IsBlacklisted reports membership. An expired entry reads as absent and is
// pruned on the spot.
func (c *BlacklistCache) IsBlacklisted(_ context.Context, token string) (bool, error) {
	if token == "" {
		return false, ErrEmptyToken
	}

	now := c.currentTime()

	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if !now.Before(entry.ExpireAt) {
		c.mu.Lock()
		delete(c.entries, token)
		c.mu.Unlock()
		return false, nil
	}

	return true, nil
}

// PurgeExpired removes all entries whose expiry is at or before now.
func (c *BlacklistCache) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	cutoff := now.UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for token, entry := range c.entries {
		if !cutoff.Before(entry.ExpireAt) {
			delete(c.entries, token)
			removed++
		}
	}
	return removed, nil
}

func (c *BlacklistCache) currentTime() time.Time {
	c.mu.RLock()
	nowFn := c.now
	c.mu.RUnlock()
	if nowFn == nil {
		return time.Now().UTC()
	}
	return nowFn().UTC()
}

func (c *BlacklistCache) evictOldestLocked(count int) {
	if count <= 0 || len(c.entries) == 0 {
		return
	}
	type item struct {
		token string
		exp   time.Time
	}
	values := make([]item, 0, len(c.entries))
	for token, entry := range c.entries {
		values = append(values, item{token: token, exp: entry.ExpireAt})
	}
	sort.Slice(values, func(i, j int) bool { return values[i].exp.Before(values[j].exp) })
	if count > len(values) {
		count = len(values)
	}
	for i := 0; i < count; i++ {
		delete(c.entries, values[i].token)
	}
}

var _ port.BlacklistStore = (*BlacklistCache)(nil)
