package domain

import "time"

// LoginStatus enumerates the audit verdict for a login attempt.
type LoginStatus string

const (
	LoginStatusSafe       LoginStatus = "safe"
	LoginStatusSuspicious LoginStatus = "suspicious"
	// LoginStatusBlocked is reserved for manual intervention; the risk
	// engine never emits it.
	LoginStatusBlocked LoginStatus = "blocked"
)

// AuthMethod identifies the channel that proved possession of the identity.
type AuthMethod string

const (
	AuthMethodEmail AuthMethod = "email"
	AuthMethodPhone AuthMethod = "phone"
)

// RiskFactor is one contributing signal inside a risk verdict.
type RiskFactor struct {
	Factor      string `json:"factor" bson:"factor"`
	Score       int    `json:"score" bson:"score"`
	Description string `json:"description" bson:"description"`
}

// LoginRecord is one immutable audit entry. Records are appended on every
// verification attempt outcome and never mutated afterwards.
type LoginRecord struct {
	ID                string       `json:"id" bson:"_id,omitempty"`
	UserID            string       `json:"user_id,omitempty" bson:"userId"`
	IP                string       `json:"ip" bson:"ip"`
	UserAgent         string       `json:"user_agent,omitempty" bson:"userAgent,omitempty"`
	DeviceFingerprint string       `json:"device_fingerprint,omitempty" bson:"deviceFingerprint,omitempty"`
	SessionID         string       `json:"session_id,omitempty" bson:"sessionId,omitempty"`
	Location          Location     `json:"location" bson:"location"`
	Status            LoginStatus  `json:"status" bson:"status"`
	RiskScore         int          `json:"risk_score" bson:"riskScore"`
	RiskFactors       []RiskFactor `json:"risk_factors" bson:"riskFactors"`
	AuthMethod        AuthMethod   `json:"auth_method" bson:"authMethod"`
	Success           bool         `json:"success" bson:"success"`
	FailureReason     string       `json:"failure_reason,omitempty" bson:"failureReason,omitempty"`
	CreatedAt         time.Time    `json:"created_at" bson:"createdAt"`
}

// StatusCount is an aggregate of login records grouped by status.
type StatusCount struct {
	Status    LoginStatus `json:"status" bson:"_id"`
	Count     int64       `json:"count" bson:"count"`
	LastLogin time.Time   `json:"last_login" bson:"lastLogin"`
}

// DailyTrend is the per-day safe/suspicious breakdown used by the dashboard.
type DailyTrend struct {
	Date       string `json:"date" bson:"_id"`
	Safe       int64  `json:"safe" bson:"safe"`
	Suspicious int64  `json:"suspicious" bson:"suspicious"`
}

// LocationCount aggregates logins by city/country.
type LocationCount struct {
	Location    string `json:"location" bson:"location"`
	Count       int64  `json:"count" bson:"count"`
	UniqueUsers int64  `json:"unique_users" bson:"uniqueUsers"`
}
