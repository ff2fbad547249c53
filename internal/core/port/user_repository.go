package port

import (
	"context"
	"time"

	"github.com/oakmund/admin-iam/internal/core/domain"
)

// UserRepository provides access to administrative accounts.
type UserRepository interface {
	// FindByUsername resolves an account within a tenant. Returns
	// repository.ErrNotFound when no account matches.
	FindByUsername(ctx context.Context, tenantID, username string) (*domain.User, error)
	// GetByID loads an account by its identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateCredential replaces hash, salt and iteration count as one unit.
	UpdateCredential(ctx context.Context, id, hash, salt string, iterations int, changedAt time.Time) error
	// UpdateLastLogin records the instant of a successful authentication.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
