package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/oakmund/admin-iam/internal/repository"
)

func TestUserRepository_UpdateCredential(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	changedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE admin\.users SET password_hash = \$1, password_salt = \$2, hash_iterations = \$3, last_password_change = \$4`).
		WithArgs("new-hash", "new-salt", 10000, changedAt, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateCredential(context.Background(), "user-1", "new-hash", "new-salt", 10000, changedAt); err != nil {
		t.Fatalf("UpdateCredential returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdateCredential_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE admin\.users SET password_hash`).
		WithArgs("hash", "salt", 10000, pgxmock.AnyArg(), "user-404").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateCredential(context.Background(), "user-404", "hash", "salt", 10000, time.Now())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM admin\.users WHERE id = \$1`).
		WithArgs("user-404").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "user-404")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	registered := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(userColumns).
		AddRow("user-1", "tenant-1", "alice", "alice@example.com", "active",
			"hash", "salt", 10000, 0, nil, registered, nil, nil)

	mock.ExpectQuery(`SELECT .+ FROM admin\.users WHERE`).
		WithArgs("tenant-1", "alice").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "tenant-1", "alice")
	if err != nil {
		t.Fatalf("FindByUsername returned error: %v", err)
	}
	if user.ID != "user-1" || user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected email to be scanned, got %q", user.Email)
	}
	if user.LockedAt != nil {
		t.Fatal("expected nil locked_at")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
