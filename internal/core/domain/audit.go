package domain

import "time"

// ClientContext carries the request-side facts captured at login time. All
// fields are optional; absent values are emitted as empty strings.
type ClientContext struct {
	IP          string
	Location    string
	Browser     string
	OS          string
	UserAgent   string
	DeviceID    string
	DeviceType  string
	DeviceModel string
}

// LoginAttempt is an immutable audit fact about a single authentication
// attempt. Identifier holds the submitted username when no account resolved.
type LoginAttempt struct {
	UserID     string
	TenantID   string
	Identifier string
	Success    bool
	Reason     string
	Client     ClientContext
	At         time.Time
}

// LoginDevice describes the device seen on a successful login; consumers
// upsert it keyed by (UserID, DeviceID).
type LoginDevice struct {
	UserID      string
	DeviceID    string
	DeviceType  string
	DeviceModel string
	LastSeenAt  time.Time
}

// LoginEnvironment snapshots the network and platform environment of a
// successful login.
type LoginEnvironment struct {
	UserID     string
	IP         string
	Location   string
	Browser    string
	OS         string
	RecordedAt time.Time
}

// ErrorRecord is an outbound fact about an unexpected internal failure during
// an authentication flow. Source names the operation that failed; Stack is the
// capture at the failure site.
type ErrorRecord struct {
	UserID    string
	UserName  string
	ErrorType string
	Message   string
	Stack     string
	Source    string
	At        time.Time
}
