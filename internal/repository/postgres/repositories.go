package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups the PostgreSQL-backed repositories sharing one pool.
type Repositories struct {
	Users    *UserRepository
	Lockouts *LockoutRepository
}

// NewRepositories wires all repositories against the supplied pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(pool),
		Lockouts: NewLockoutRepository(pool),
	}
}
