package domain

import "time"

// ChallengeIssuedEvent is emitted whenever an OTP challenge is stored for a
// user. The code itself is never part of the event.
type ChallengeIssuedEvent struct {
	EventID    string
	UserID     string
	AuthMethod AuthMethod
	IP         string
	ExpiresAt  time.Time
	IssuedAt   time.Time
}

// LoginSucceededEvent is emitted after a successful verification, carrying
// the computed verdict.
type LoginSucceededEvent struct {
	EventID    string
	UserID     string
	AuthMethod AuthMethod
	IP         string
	Status     LoginStatus
	RiskScore  int
	Factors    []RiskFactor
	LoginAt    time.Time
}

// ChallengeExhaustedEvent is emitted when a challenge runs out of attempts,
// a signal worth alerting on since it usually means active guessing.
type ChallengeExhaustedEvent struct {
	EventID    string
	UserID     string
	IP         string
	Attempts   int
	OccurredAt time.Time
}
