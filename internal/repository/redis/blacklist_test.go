package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/repository"
)

func newTestStore(t *testing.T, now time.Time) (*BlacklistStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := red.NewClient(&red.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewBlacklistStore(client, "blacklist").WithClock(func() time.Time { return now })
	return store, mr
}

func TestBlacklistStoreAddAndLookup(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store, _ := newTestStore(t, now)
	ctx := context.Background()

	entry := domain.BlacklistEntry{
		Token:         "access-token-1",
		TokenType:     domain.TokenTypeAccess,
		ExpireAt:      now.Add(15 * time.Minute),
		BlacklistedAt: now,
		Reason:        "logout",
	}

	if err := store.Add(ctx, entry); err != nil {
		t.Fatalf("add: %v", err)
	}

	blacklisted, err := store.IsBlacklisted(ctx, "access-token-1")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !blacklisted {
		t.Fatal("expected token to be blacklisted")
	}

	blacklisted, err = store.IsBlacklisted(ctx, "unknown-token")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if blacklisted {
		t.Fatal("unknown token reported as blacklisted")
	}
}

func TestBlacklistStoreDuplicateAdd(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store, _ := newTestStore(t, now)
	ctx := context.Background()

	entry := domain.BlacklistEntry{
		Token:         "refresh-token-1",
		TokenType:     domain.TokenTypeRefresh,
		ExpireAt:      now.Add(time.Hour),
		BlacklistedAt: now,
		Reason:        "logout",
	}

	if err := store.Add(ctx, entry); err != nil {
		t.Fatalf("first add: %v", err)
	}

	err := store.Add(ctx, entry)
	if !errors.Is(err, repository.ErrAlreadyBlacklisted) {
		t.Fatalf("expected ErrAlreadyBlacklisted, got %v", err)
	}
}

func TestBlacklistStoreExpiredAddIsNoop(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store, mr := newTestStore(t, now)
	ctx := context.Background()

	if err := store.Add(ctx, domain.BlacklistEntry{
		Token:    "stale-token",
		ExpireAt: now.Add(-time.Minute),
	}); err != nil {
		t.Fatalf("expected expired add to be a no-op, got %v", err)
	}

	if mr.Exists("blacklist:stale-token") {
		t.Fatal("expired entry written to redis")
	}
}

func TestBlacklistStoreLazyExpiry(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	current := start
	store, _ := newTestStore(t, start)
	store.WithClock(func() time.Time { return current })
	ctx := context.Background()

	if err := store.Add(ctx, domain.BlacklistEntry{
		Token:    "short-lived",
		ExpireAt: start.Add(time.Minute),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Miniredis does not advance TTLs on its own, so the payload outlives its
	// recorded expiry and the read path has to mask it.
	current = start.Add(2 * time.Minute)

	blacklisted, err := store.IsBlacklisted(ctx, "short-lived")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if blacklisted {
		t.Fatal("expired entry reported as present")
	}
}

func TestBlacklistStorePurgeExpired(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store, _ := newTestStore(t, start)
	ctx := context.Background()

	for _, entry := range []domain.BlacklistEntry{
		{Token: "live-1", ExpireAt: start.Add(time.Hour)},
		{Token: "live-2", ExpireAt: start.Add(2 * time.Hour)},
		{Token: "dying-1", ExpireAt: start.Add(time.Minute)},
		{Token: "dying-2", ExpireAt: start.Add(2 * time.Minute)},
	} {
		if err := store.Add(ctx, entry); err != nil {
			t.Fatalf("add %s: %v", entry.Token, err)
		}
	}

	removed, err := store.PurgeExpired(ctx, start.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("purge expired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}

	blacklisted, err := store.IsBlacklisted(ctx, "live-1")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !blacklisted {
		t.Fatal("live entry removed by purge")
	}
}
