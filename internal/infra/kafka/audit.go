package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/infra/config"
	"github.com/oakmund/admin-iam/internal/infra/logger"
)

const schemaVersion = "1.0"

// AuditEmitter implements the login and error audit ports using Kafka.
// Consumers own the audit storage; this side only publishes facts.
type AuditEmitter struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewAuditEmitter constructs a Kafka-backed audit emitter.
func NewAuditEmitter(producer *Producer, appCfg config.AppSettings, log *zap.Logger) *AuditEmitter {
	return &AuditEmitter{producer: producer, appCfg: appCfg, logger: log}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (e *AuditEmitter) publish(ctx context.Context, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	metadata := envelopeMetadata{
		"service":     e.appCfg.Name,
		"environment": e.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: e.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case e.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordAttempt publishes admin.login.attempt events.
func (e *AuditEmitter) RecordAttempt(ctx context.Context, attempt domain.LoginAttempt) error {
	payload := struct {
		UserID     string    `json:"user_id,omitempty"`
		TenantID   string    `json:"tenant_id,omitempty"`
		Identifier string    `json:"identifier,omitempty"`
		Success    bool      `json:"success"`
		Reason     string    `json:"reason,omitempty"`
		IP         string    `json:"ip,omitempty"`
		Location   string    `json:"location,omitempty"`
		Browser    string    `json:"browser,omitempty"`
		OS         string    `json:"os,omitempty"`
		DeviceID   string    `json:"device_id,omitempty"`
		AttemptAt  time.Time `json:"attempt_at"`
	}{
		UserID:     attempt.UserID,
		TenantID:   attempt.TenantID,
		Identifier: attempt.Identifier,
		Success:    attempt.Success,
		Reason:     attempt.Reason,
		IP:         logger.MaskIP(attempt.Client.IP),
		Location:   attempt.Client.Location,
		Browser:    attempt.Client.Browser,
		OS:         attempt.Client.OS,
		DeviceID:   attempt.Client.DeviceID,
		AttemptAt:  attempt.At.UTC(),
	}

	return e.publish(ctx, "admin.login.attempt", attempt.UserID, attempt.At, payload)
}

// UpsertDevice publishes admin.login.device events keyed by (user, device).
func (e *AuditEmitter) UpsertDevice(ctx context.Context, device domain.LoginDevice) error {
	payload := struct {
		UserID      string    `json:"user_id"`
		DeviceID    string    `json:"device_id"`
		DeviceType  string    `json:"device_type,omitempty"`
		DeviceModel string    `json:"device_model,omitempty"`
		LastSeenAt  time.Time `json:"last_seen_at"`
	}{
		UserID:      device.UserID,
		DeviceID:    device.DeviceID,
		DeviceType:  device.DeviceType,
		DeviceModel: device.DeviceModel,
		LastSeenAt:  device.LastSeenAt.UTC(),
	}

	return e.publish(ctx, "admin.login.device", device.UserID, device.LastSeenAt, payload)
}

// RecordEnvironment publishes admin.login.environment events.
func (e *AuditEmitter) RecordEnvironment(ctx context.Context, env domain.LoginEnvironment) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		IP         string    `json:"ip,omitempty"`
		Location   string    `json:"location,omitempty"`
		Browser    string    `json:"browser,omitempty"`
		OS         string    `json:"os,omitempty"`
		RecordedAt time.Time `json:"recorded_at"`
	}{
		UserID:     env.UserID,
		IP:         logger.MaskIP(env.IP),
		Location:   env.Location,
		Browser:    env.Browser,
		OS:         env.OS,
		RecordedAt: env.RecordedAt.UTC(),
	}

	return e.publish(ctx, "admin.login.environment", env.UserID, env.RecordedAt, payload)
}

// RecordError publishes admin.error.recorded events for unexpected failures.
func (e *AuditEmitter) RecordError(ctx context.Context, record domain.ErrorRecord) error {
	payload := struct {
		UserID     string    `json:"user_id,omitempty"`
		UserName   string    `json:"user_name,omitempty"`
		ErrorType  string    `json:"error_type"`
		Message    string    `json:"message"`
		Stack      string    `json:"stack,omitempty"`
		Source     string    `json:"source"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		UserID:     record.UserID,
		UserName:   record.UserName,
		ErrorType:  record.ErrorType,
		Message:    record.Message,
		Stack:      record.Stack,
		Source:     record.Source,
		OccurredAt: record.At.UTC(),
	}

	return e.publish(ctx, "admin.error.recorded", record.UserID, record.At, payload)
}

var (
	_ port.LoginAuditEmitter = (*AuditEmitter)(nil)
	_ port.ErrorAuditEmitter = (*AuditEmitter)(nil)
)
