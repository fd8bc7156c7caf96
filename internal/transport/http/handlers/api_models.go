package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// OTPRequest is the payload for requesting or resending a code. At least
// one identifier must be present.
type OTPRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// OTPVerifyRequest is the payload for submitting a code.
type OTPVerifyRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Code  string `json:"code" binding:"required"`
}

// OTPChallengeResponse is returned after a code is dispatched.
type OTPChallengeResponse struct {
	Message   string `json:"message"`
	Method    string `json:"method"`
	ExpiresIn int    `json:"expires_in"`
}

// ThrottledResponse is returned while a previous challenge is still pending.
type ThrottledResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// RiskSummary is the verdict section of a successful verification response.
type RiskSummary struct {
	Status    domain.LoginStatus  `json:"status"`
	Score     int                 `json:"score"`
	Factors   []domain.RiskFactor `json:"factors,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// VerifyResponse describes a successful verification. The embedded user
// record serializes without its challenge fields.
type VerifyResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
	Risk      RiskSummary `json:"risk"`
}

// LoginHistoryResponse is a page of the caller's audit records.
type LoginHistoryResponse struct {
	Records []domain.LoginRecord `json:"records"`
	Page    int64                `json:"page"`
	Limit   int64                `json:"limit"`
	Total   int64                `json:"total"`
}

// LoginRecordsResponse is an unpaginated list of audit records.
type LoginRecordsResponse struct {
	Records []domain.LoginRecord `json:"records"`
	Count   int                  `json:"count"`
}

// UsersResponse is a page of user records.
type UsersResponse struct {
	Users []domain.User `json:"users"`
	Page  int64         `json:"page"`
	Limit int64         `json:"limit"`
	Total int64         `json:"total"`
}

// SetActiveRequest toggles an account's active flag.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the dependency readiness payload.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
