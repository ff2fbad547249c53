package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/repository"
)

var userColumns = []string{
	"id",
	"tenant_id",
	"username",
	"email",
	"status",
	"password_hash",
	"password_salt",
	"hash_iterations",
	"fail_count",
	"locked_at",
	"registered_at",
	"last_login",
	"last_password_change",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a user repository on top of any executor that
// satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	repo := &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// FindByUsername resolves an account within a tenant.
func (r *UserRepository) FindByUsername(ctx context.Context, tenantID, username string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("admin.users").
		Where(squirrel.Eq{"tenant_id": tenantID, "username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user by username sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("admin.users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// UpdateCredential replaces the stored hash, salt and iteration count as one
// unit.
func (r *UserRepository) UpdateCredential(ctx context.Context, id, hash, salt string, iterations int, changedAt time.Time) error {
	stmt, args, err := r.builder.Update("admin.users").
		Set("password_hash", hash).
		Set("password_salt", salt).
		Set("hash_iterations", iterations).
		Set("last_password_change", changedAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update credential sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateLastLogin records the instant of a successful authentication.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("admin.users").
		Set("last_login", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update last login sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		email              sql.NullString
		lockedAt           *time.Time
		lastLogin          *time.Time
		lastPasswordChange *time.Time
		user               domain.User
	)

	if err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Username,
		&email,
		&user.Status,
		&user.PasswordHash,
		&user.PasswordSalt,
		&user.HashIterations,
		&user.FailCount,
		&lockedAt,
		&user.RegisteredAt,
		&lastLogin,
		&lastPasswordChange,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if email.Valid {
		user.Email = email.String
	}
	user.LockedAt = lockedAt
	user.LastLogin = lastLogin
	user.LastPasswordChange = lastPasswordChange

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
