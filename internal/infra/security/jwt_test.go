package security

import (
	"errors"
	"testing"
	"time"
)

func newTestSigner(t *testing.T, now *time.Time) *TokenSigner {
	t.Helper()
	signer, err := NewTokenSigner("test-secret-with-enough-entropy", "smart-auth", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}
	signer.WithClock(func() time.Time { return *now })
	return signer
}

func TestTokenSignerRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, &now)

	token, err := signer.Sign("user-1", "admin")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	claims, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Fatalf("unexpected role: %q", claims.Role)
	}
	if claims.Issuer != "smart-auth" {
		t.Fatalf("unexpected issuer: %q", claims.Issuer)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry: %v", got)
	}
}

func TestTokenSignerRejectsExpired(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, &now)

	token, err := signer.Sign("user-1", "user")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	now = now.Add(7*24*time.Hour + time.Minute)
	if _, err := signer.Parse(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenSignerRejectsTamperedToken(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, &now)

	other, err := NewTokenSigner("a-completely-different-secret", "smart-auth", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenSigner returned error: %v", err)
	}
	other.WithClock(func() time.Time { return now })

	token, err := other.Sign("user-1", "user")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	if _, err := signer.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenSignerRejectsGarbage(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, &now)

	for _, token := range []string{"", "   ", "not.a.token", "a.b"} {
		if _, err := signer.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Parse(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestNewTokenSignerRequiresSecret(t *testing.T) {
	if _, err := NewTokenSigner("   ", "smart-auth", time.Hour); err == nil {
		t.Fatal("NewTokenSigner accepted an empty secret")
	}
}
