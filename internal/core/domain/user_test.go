package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewUserNormalizesEmail(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	user, err := NewUser("  Alice@Example.COM ", "", now)
	if err != nil {
		t.Fatalf("NewUser returned error: %v", err)
	}
	if user.Email == nil || *user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %v", user.Email)
	}
	if user.Phone != nil {
		t.Fatalf("unexpected phone: %v", user.Phone)
	}
	if user.Role != RoleUser {
		t.Fatalf("unexpected role: %q", user.Role)
	}
	if !user.IsActive {
		t.Fatal("new user should be active")
	}
	if user.Verified {
		t.Fatal("new user should not be verified")
	}
	if !user.CreatedAt.Equal(now) || !user.LastActiveAt.Equal(now) {
		t.Fatalf("timestamps not set from clock: %v %v", user.CreatedAt, user.LastActiveAt)
	}
}

func TestNewUserRequiresIdentifier(t *testing.T) {
	now := time.Now()
	if _, err := NewUser("", "  ", now); !errors.Is(err, ErrIdentifierRequired) {
		t.Fatalf("expected ErrIdentifierRequired, got %v", err)
	}
}

func TestNewUserRejectsMalformedIdentifiers(t *testing.T) {
	now := time.Now()

	if _, err := NewUser("not-an-email", "", now); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := NewUser("", "abc!def", now); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestNewUserAcceptsPhoneFormats(t *testing.T) {
	now := time.Now()
	for _, phone := range []string{"+14155550123", "+1 (415) 555-0123", "0123 456 789"} {
		if _, err := NewUser("", phone, now); err != nil {
			t.Fatalf("NewUser rejected phone %q: %v", phone, err)
		}
	}
}

func TestIdentifierPrefersEmail(t *testing.T) {
	email := "alice@example.com"
	phone := "+14155550123"

	user := User{Email: &email, Phone: &phone}
	if got := user.Identifier(); got != email {
		t.Fatalf("expected email identifier, got %q", got)
	}

	user.Email = nil
	if got := user.Identifier(); got != phone {
		t.Fatalf("expected phone identifier, got %q", got)
	}

	user.Phone = nil
	if got := user.Identifier(); got != "" {
		t.Fatalf("expected empty identifier, got %q", got)
	}
}

func TestHasPendingChallenge(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	expiry := now.Add(2 * time.Minute)

	user := User{OTPHash: "$2a$12$fakehash", OTPExpiry: &expiry}
	if !user.HasPendingChallenge(now) {
		t.Fatal("expected pending challenge before expiry")
	}
	if got := user.ChallengeRemaining(now.Add(30 * time.Second)); got != 90*time.Second {
		t.Fatalf("expected 90s remaining, got %v", got)
	}

	if user.HasPendingChallenge(expiry) {
		t.Fatal("challenge should not be pending at its exact expiry")
	}
	if got := user.ChallengeRemaining(expiry.Add(time.Second)); got != 0 {
		t.Fatalf("expected zero remaining after expiry, got %v", got)
	}

	empty := User{OTPExpiry: &expiry}
	if empty.HasPendingChallenge(now) {
		t.Fatal("challenge without a hash should not be pending")
	}
}

func TestUserJSONExcludesChallengeState(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	expiry := now.Add(2 * time.Minute)
	email := "alice@example.com"

	user := User{
		ID:          "user-1",
		Email:       &email,
		OTPHash:     "$2a$12$secrethash",
		OTPExpiry:   &expiry,
		OTPAttempts: 2,
		Verified:    true,
		Role:        RoleUser,
		IsActive:    true,
	}

	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}

	payload := string(raw)
	for _, leaked := range []string{"otpHash", "otpExpiry", "otpAttempts", "secrethash", "OTPHash"} {
		if strings.Contains(payload, leaked) {
			t.Fatalf("serialized user leaks %q: %s", leaked, payload)
		}
	}
	if !strings.Contains(payload, `"id":"user-1"`) {
		t.Fatalf("serialized user missing id: %s", payload)
	}
}
