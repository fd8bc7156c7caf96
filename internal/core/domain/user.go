package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// UserRole enumerates the roles a user account can hold.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

var (
	// ErrIdentifierRequired indicates neither an email nor a phone was supplied.
	ErrIdentifierRequired = errors.New("either email or phone number is required")
	// ErrInvalidEmail indicates the supplied email failed validation.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidPhone indicates the supplied phone number failed validation.
	ErrInvalidPhone = errors.New("invalid phone number")
)

var (
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// User is the persisted identity record. It is the single source of truth for
// the OTP challenge state and the last-known login anchors the risk engine
// compares against.
//
// The three challenge fields are secrets of the issuance state machine and are
// excluded from JSON serialization entirely; they must never leave the process
// in any outward payload.
type User struct {
	ID    string  `json:"id" bson:"_id,omitempty"`
	Email *string `json:"email,omitempty" bson:"email,omitempty"`
	Phone *string `json:"phone,omitempty" bson:"phone,omitempty"`

	OTPHash     string     `json:"-" bson:"otpHash,omitempty"`
	OTPExpiry   *time.Time `json:"-" bson:"otpExpiry,omitempty"`
	OTPAttempts int        `json:"-" bson:"otpAttempts"`

	Verified bool     `json:"verified" bson:"verified"`
	Role     UserRole `json:"role" bson:"role"`
	IsActive bool     `json:"is_active" bson:"isActive"`

	LastLoginIP       string    `json:"last_login_ip,omitempty" bson:"lastLoginIP,omitempty"`
	LastLoginLocation *Location `json:"last_login_location,omitempty" bson:"lastLoginLocation,omitempty"`
	LoginCount        int64     `json:"login_count" bson:"loginCount"`
	LastActiveAt      time.Time `json:"last_active_at" bson:"lastActiveAt"`

	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" bson:"updatedAt"`
}

// NewUser constructs a user record from an email and/or phone identifier.
// Validation happens here, at construction time, so no record can ever be
// persisted without at least one well-formed identifier.
func NewUser(email, phone string, now time.Time) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)

	if email == "" && phone == "" {
		return User{}, ErrIdentifierRequired
	}
	if email != "" && !emailPattern.MatchString(email) {
		return User{}, ErrInvalidEmail
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return User{}, ErrInvalidPhone
	}

	user := User{
		Role:         RoleUser,
		IsActive:     true,
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if email != "" {
		user.Email = &email
	}
	if phone != "" {
		user.Phone = &phone
	}

	return user, nil
}

// Identifier returns the primary contact identifier, preferring email.
func (u User) Identifier() string {
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	if u.Phone != nil {
		return *u.Phone
	}
	return ""
}

// HasPendingChallenge reports whether an unexpired OTP challenge is stored.
func (u User) HasPendingChallenge(now time.Time) bool {
	return u.OTPHash != "" && u.OTPExpiry != nil && now.Before(*u.OTPExpiry)
}

// ChallengeRemaining returns how long the pending challenge has left, zero
// when none is pending.
func (u User) ChallengeRemaining(now time.Time) time.Duration {
	if !u.HasPendingChallenge(now) {
		return 0
	}
	return u.OTPExpiry.Sub(now)
}
