package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/repository"
)

const defaultBlacklistPrefix = "blacklist"

type blacklistPayload struct {
	TokenType     string    `json:"token_type"`
	ExpireAt      time.Time `json:"expire_at"`
	BlacklistedAt time.Time `json:"blacklisted_at"`
	Reason        string    `json:"reason,omitempty"`
}

// BlacklistStore persists revoked tokens in Redis. Keys carry a TTL equal to
// the remaining token lifetime, so entries vanish with the tokens they
// revoke; PurgeExpired exists for entries whose TTL Redis has not yet
// reclaimed.
type BlacklistStore struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewBlacklistStore wires a Redis client into a blacklist store.
func NewBlacklistStore(client *red.Client, keyPrefix string) *BlacklistStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultBlacklistPrefix
	}

	return &BlacklistStore{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic testing.
func (s *BlacklistStore) WithClock(now func() time.Time) *BlacklistStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Add registers a revoked token until its expiry. A token already present
// yields repository.ErrAlreadyBlacklisted; an already expired entry is a
// silent no-op.
func (s *BlacklistStore) Add(ctx context.Context, entry domain.BlacklistEntry) error {
	key := s.key(entry.Token)
	if key == "" {
		return errors.New("token must not be empty")
	}

	now := s.now()
	if entry.Expired(now) {
		return nil
	}

	payload, err := json.Marshal(blacklistPayload{
		TokenType:     string(entry.TokenType),
		ExpireAt:      entry.ExpireAt.UTC(),
		BlacklistedAt: entry.BlacklistedAt.UTC(),
		Reason:        entry.Reason,
	})
	if err != nil {
		return fmt.Errorf("encode blacklist entry: %w", err)
	}

	ttl := entry.ExpireAt.Sub(now)
	stored, err := s.client.SetNX(ctx, key, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx blacklist entry: %w", err)
	}
	if !stored {
		return repository.ErrAlreadyBlacklisted
	}

	return nil
}

// IsBlacklisted reports membership. Entries past their recorded expiry read
// as absent and are removed.
func (s *BlacklistStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	key := s.key(token)
	if key == "" {
		return false, errors.New("token must not be empty")
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get blacklist entry: %w", err)
	}

	var payload blacklistPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false, fmt.Errorf("decode blacklist entry: %w", err)
	}

	if !s.now().Before(payload.ExpireAt) {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("redis delete expired blacklist entry: %w", err)
		}
		return false, nil
	}

	return true, nil
}

// PurgeExpired sweeps the key space for entries whose expiry is at or before
// now and deletes them, returning how many were removed.
func (s *BlacklistStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.UTC()
	removed := 0

	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		raw, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, red.Nil) {
				continue
			}
			return removed, fmt.Errorf("redis get blacklist entry: %w", err)
		}

		var payload blacklistPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return removed, fmt.Errorf("decode blacklist entry: %w", err)
		}

		if !cutoff.Before(payload.ExpireAt) {
			deleted, err := s.client.Del(ctx, key).Result()
			if err != nil {
				return removed, fmt.Errorf("redis delete expired blacklist entry: %w", err)
			}
			removed += int(deleted)
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan blacklist keys: %w", err)
	}

	return removed, nil
}

func (s *BlacklistStore) key(token string) string {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}

var _ port.BlacklistStore = (*BlacklistStore)(nil)
