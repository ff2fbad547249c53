package domain

import "time"

const (
	// DefaultLockoutThreshold is the number of consecutive failures that
	// triggers a lock.
	DefaultLockoutThreshold = 5
	// DefaultLockoutDuration is how long a lock stays effective before it
	// ages out.
	DefaultLockoutDuration = 30 * time.Minute
)

// LockoutState is the per-user brute-force counter. LockedAt is non-nil only
// while FailCount has reached the policy threshold; both fields are cleared
// together on success or when the lock ages out.
type LockoutState struct {
	UserID    string
	FailCount int
	LockedAt  *time.Time
}

// Locked reports whether a lock is currently recorded, regardless of age.
func (s LockoutState) Locked() bool {
	return s.LockedAt != nil
}

// LockoutPolicy is the pure lockout state machine. Persistence-side atomicity
// is the store's responsibility; the policy only encodes the transitions.
type LockoutPolicy struct {
	Threshold    int
	LockDuration time.Duration
}

// NewLockoutPolicy returns a policy with defaults applied for out-of-range
// values.
func NewLockoutPolicy(threshold int, lockDuration time.Duration) LockoutPolicy {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockoutDuration
	}
	return LockoutPolicy{Threshold: threshold, LockDuration: lockDuration}
}

// RecordFailure increments the failure counter and sets the lock timestamp
// when the threshold is reached. Calling it on an already locked state is a
// no-op: the first lock timestamp is authoritative.
func (p LockoutPolicy) RecordFailure(state LockoutState, now time.Time) LockoutState {
	if state.Locked() {
		return state
	}
	state.FailCount++
	if state.FailCount >= p.Threshold {
		lockedAt := now
		state.LockedAt = &lockedAt
	}
	return state
}

// RecordSuccess resets the counter and clears any lock.
func (p LockoutPolicy) RecordSuccess(state LockoutState) LockoutState {
	state.FailCount = 0
	state.LockedAt = nil
	return state
}

// CheckAndMaybeUnlock evaluates the state at the given instant. The lock
// stays effective through the full LockDuration; only strictly after
// LockedAt+LockDuration does it age out and return a fully reset state. An
// active lock reports locked=true with the time remaining until it expires.
func (p LockoutPolicy) CheckAndMaybeUnlock(state LockoutState, now time.Time) (LockoutState, bool, time.Duration) {
	if !state.Locked() {
		return state, false, 0
	}

	expiresAt := state.LockedAt.Add(p.LockDuration)
	if now.After(expiresAt) {
		return p.RecordSuccess(state), false, 0
	}

	return state, true, expiresAt.Sub(now)
}
