package port

import (
	"context"
	"time"

	"github.com/oakmund/admin-iam/internal/core/domain"
)

// LockoutRepository persists per-user failure counters. RecordFailure must be
// atomic with respect to concurrent callers: two simultaneous failures for the
// same user both count.
type LockoutRepository interface {
	// Get returns the current counter state; a user with no recorded
	// failures yields a zero-valued state.
	Get(ctx context.Context, userID string) (domain.LockoutState, error)
	// RecordFailure increments the counter and sets the lock timestamp when
	// the threshold is reached, all in one store round trip. A user already
	// locked is left untouched and the existing state is returned.
	RecordFailure(ctx context.Context, userID string, threshold int, now time.Time) (domain.LockoutState, error)
	// Reset clears the counter and any lock.
	Reset(ctx context.Context, userID string) error
}
