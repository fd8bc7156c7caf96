package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	otpMin = 100000
	otpMax = 999999

	// DefaultBcryptCost is the work factor applied to OTP hashes. Codes
	// live for two minutes, but the hash outlives a breached database
	// dump, so it gets the same cost a password would.
	DefaultBcryptCost = 12
)

// GenerateOTP returns a uniformly random 6-digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	span := big.NewInt(otpMax - otpMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// HashOTP produces the one-way hash stored on the user record. The
// plaintext code is never persisted.
func HashOTP(code string, cost int) (string, error) {
	if cost < DefaultBcryptCost {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	return string(hash), nil
}

// CompareOTP reports whether the submitted code matches the stored hash.
func CompareOTP(code, hash string) (bool, error) {
	if code == "" || hash == "" {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare otp: %w", err)
}
