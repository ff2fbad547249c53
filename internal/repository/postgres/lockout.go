package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/repository"
)

// Failure counters live on the user row itself; the single-statement update
// below keeps concurrent increments from losing each other.
const recordFailureSQL = `
UPDATE admin.users
SET fail_count = fail_count + 1,
    locked_at = CASE WHEN fail_count + 1 >= $2 THEN $3 ELSE locked_at END
WHERE id = $1 AND locked_at IS NULL
RETURNING fail_count, locked_at`

// LockoutRepository implements port.LockoutRepository on top of the
// admin.users table.
type LockoutRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewLockoutRepository wires a lockout repository on top of any executor that
// satisfies pgExecutor.
func NewLockoutRepository(exec pgExecutor) *LockoutRepository {
	repo := &LockoutRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *LockoutRepository) WithTx(tx pgx.Tx) *LockoutRepository {
	if tx == nil {
		return r
	}
	return &LockoutRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Get returns the current counter state for a user.
func (r *LockoutRepository) Get(ctx context.Context, userID string) (domain.LockoutState, error) {
	stmt, args, err := r.builder.
		Select("fail_count", "locked_at").
		From("admin.users").
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return domain.LockoutState{}, fmt.Errorf("build select lockout sql: %w", err)
	}

	state := domain.LockoutState{UserID: userID}
	var lockedAt *time.Time
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&state.FailCount, &lockedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.LockoutState{}, repository.ErrNotFound
		}
		return domain.LockoutState{}, fmt.Errorf("scan lockout state: %w", err)
	}
	state.LockedAt = lockedAt

	return state, nil
}

// RecordFailure increments the failure counter atomically, locking the row
// when the threshold is reached. A row already locked is left untouched and
// its existing state is returned.
func (r *LockoutRepository) RecordFailure(ctx context.Context, userID string, threshold int, now time.Time) (domain.LockoutState, error) {
	state := domain.LockoutState{UserID: userID}
	var lockedAt *time.Time

	err := r.exec.QueryRow(ctx, recordFailureSQL, userID, threshold, now.UTC()).
		Scan(&state.FailCount, &lockedAt)
	if err == pgx.ErrNoRows {
		// Either the user vanished or another caller locked the row first;
		// the current state disambiguates.
		return r.Get(ctx, userID)
	}
	if err != nil {
		return domain.LockoutState{}, fmt.Errorf("record login failure: %w", err)
	}
	state.LockedAt = lockedAt

	return state, nil
}

// Reset clears the failure counter and any lock in a single statement.
func (r *LockoutRepository) Reset(ctx context.Context, userID string) error {
	stmt, args, err := r.builder.Update("admin.users").
		Set("fail_count", 0).
		Set("locked_at", nil).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset lockout sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.LockoutRepository = (*LockoutRepository)(nil)
