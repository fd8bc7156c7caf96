package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at),
	}

	p.logger.Info("Stub event published", append(base, fields...)...)
}

func (p *StubPublisher) PublishChallengeIssued(_ context.Context, event domain.ChallengeIssuedEvent) error {
	p.logEvent("auth.otp.challenge.issued", event.UserID, event.IssuedAt,
		zap.String("auth_method", string(event.AuthMethod)),
	)
	return nil
}

func (p *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	p.logEvent("auth.login.succeeded", event.UserID, event.LoginAt,
		zap.String("status", string(event.Status)),
		zap.Int("risk_score", event.RiskScore),
	)
	return nil
}

func (p *StubPublisher) PublishChallengeExhausted(_ context.Context, event domain.ChallengeExhaustedEvent) error {
	p.logEvent("auth.otp.challenge.exhausted", event.UserID, event.OccurredAt,
		zap.Int("attempts", event.Attempts),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
