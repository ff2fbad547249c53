package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/infra/logger"
)

// StubEmitter logs audit facts instead of publishing them. It is wired when
// no brokers are configured, typically in local development.
type StubEmitter struct {
	logger *zap.Logger
}

// NewStubEmitter constructs a logging-only audit emitter.
func NewStubEmitter(log *zap.Logger) *StubEmitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubEmitter{logger: log}
}

func (s *StubEmitter) RecordAttempt(_ context.Context, attempt domain.LoginAttempt) error {
	s.logger.Info("stub audit: login attempt",
		zap.String("user_id", attempt.UserID),
		zap.String("identifier", attempt.Identifier),
		zap.Bool("success", attempt.Success),
		zap.String("reason", attempt.Reason),
		zap.String("ip", logger.MaskIP(attempt.Client.IP)),
	)
	return nil
}

func (s *StubEmitter) UpsertDevice(_ context.Context, device domain.LoginDevice) error {
	s.logger.Info("stub audit: login device",
		zap.String("user_id", device.UserID),
		zap.String("device_id", device.DeviceID),
		zap.String("device_type", device.DeviceType),
	)
	return nil
}

func (s *StubEmitter) RecordEnvironment(_ context.Context, env domain.LoginEnvironment) error {
	s.logger.Info("stub audit: login environment",
		zap.String("user_id", env.UserID),
		zap.String("ip", logger.MaskIP(env.IP)),
		zap.String("browser", env.Browser),
		zap.String("os", env.OS),
	)
	return nil
}

func (s *StubEmitter) RecordError(_ context.Context, record domain.ErrorRecord) error {
	s.logger.Warn("stub audit: error recorded",
		zap.String("source", record.Source),
		zap.String("error_type", record.ErrorType),
		zap.String("user_id", record.UserID),
		zap.String("user_name", record.UserName),
		zap.String("message", record.Message),
	)
	return nil
}

var (
	_ port.LoginAuditEmitter = (*StubEmitter)(nil)
	_ port.ErrorAuditEmitter = (*StubEmitter)(nil)
)
