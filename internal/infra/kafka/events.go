package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
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

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishChallengeIssued publishes auth.otp.challenge.issued events.
func (p *EventPublisher) PublishChallengeIssued(ctx context.Context, event domain.ChallengeIssuedEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		AuthMethod string    `json:"auth_method"`
		IP         string    `json:"ip,omitempty"`
		ExpiresAt  time.Time `json:"expires_at"`
	}{
		UserID:     event.UserID,
		AuthMethod: string(event.AuthMethod),
		IP:         event.IP,
		ExpiresAt:  event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "auth.otp.challenge.issued", event.UserID, event.IssuedAt, payload)
}

// PublishLoginSucceeded publishes auth.login.succeeded events, carrying the
// risk verdict for downstream alerting.
func (p *EventPublisher) PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error {
	payload := struct {
		UserID     string              `json:"user_id"`
		AuthMethod string              `json:"auth_method"`
		IP         string              `json:"ip,omitempty"`
		Status     string              `json:"status"`
		RiskScore  int                 `json:"risk_score"`
		Factors    []domain.RiskFactor `json:"risk_factors,omitempty"`
	}{
		UserID:     event.UserID,
		AuthMethod: string(event.AuthMethod),
		IP:         event.IP,
		Status:     string(event.Status),
		RiskScore:  event.RiskScore,
		Factors:    event.Factors,
	}

	return p.publish(ctx, event.EventID, "auth.login.succeeded", event.UserID, event.LoginAt, payload)
}

// PublishChallengeExhausted publishes auth.otp.challenge.exhausted events.
func (p *EventPublisher) PublishChallengeExhausted(ctx context.Context, event domain.ChallengeExhaustedEvent) error {
	payload := struct {
		UserID   string `json:"user_id"`
		IP       string `json:"ip,omitempty"`
		Attempts int    `json:"attempts"`
	}{
		UserID:   event.UserID,
		IP:       event.IP,
		Attempts: event.Attempts,
	}

	return p.publish(ctx, event.EventID, "auth.otp.challenge.exhausted", event.UserID, event.OccurredAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
