package repository

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrAlreadyBlacklisted indicates the token is already present in the
// blacklist. Callers treat it as a warning, not a failure.
var ErrAlreadyBlacklisted = errors.New("repository: token already blacklisted")
