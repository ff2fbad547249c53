package port

import (
	"context"
	"time"

	"github.com/oakmund/admin-iam/internal/core/domain"
)

// BlacklistStore records revoked tokens until their natural expiry.
type BlacklistStore interface {
	// Add registers an entry. A token already present yields
	// repository.ErrAlreadyBlacklisted; an entry whose ExpireAt has already
	// passed is a silent no-op.
	Add(ctx context.Context, entry domain.BlacklistEntry) error
	// IsBlacklisted reports membership. Expired entries read as absent.
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	// PurgeExpired removes entries whose expiry is at or before now and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
