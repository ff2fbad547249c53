package port

import (
	"context"

	"github.com/oakmund/admin-iam/internal/core/domain"
)

// LoginAuditEmitter publishes login audit facts to downstream consumers.
// Emission is best effort; callers treat failures as non-fatal.
type LoginAuditEmitter interface {
	RecordAttempt(ctx context.Context, attempt domain.LoginAttempt) error
	UpsertDevice(ctx context.Context, device domain.LoginDevice) error
	RecordEnvironment(ctx context.Context, env domain.LoginEnvironment) error
}

// ErrorAuditEmitter publishes unexpected internal failures for later review.
type ErrorAuditEmitter interface {
	RecordError(ctx context.Context, record domain.ErrorRecord) error
}
