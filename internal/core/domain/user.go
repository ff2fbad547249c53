package domain

import "time"

// UserStatus represents the lifecycle state of an administrative account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User is an administrative account scoped to a tenant. PasswordHash,
// PasswordSalt and HashIterations form a single credential unit and are only
// ever replaced together.
type User struct {
	ID                 string
	TenantID           string
	Username           string
	Email              string
	Status             UserStatus
	PasswordHash       string
	PasswordSalt       string
	HashIterations     int
	FailCount          int
	LockedAt           *time.Time
	RegisteredAt       time.Time
	LastLogin          *time.Time
	LastPasswordChange *time.Time
}

// IsActive reports whether the account may authenticate at all.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
