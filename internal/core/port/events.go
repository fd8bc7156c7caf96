package port

import (
	"context"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

// EventPublisher emits security events for downstream consumers (alerting,
// SIEM). Publishing is best-effort; failures must never abort the login
// flow that triggered the event.
type EventPublisher interface {
	PublishChallengeIssued(ctx context.Context, event domain.ChallengeIssuedEvent) error
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishChallengeExhausted(ctx context.Context, event domain.ChallengeExhaustedEvent) error
}
