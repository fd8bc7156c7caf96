package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/infra/security"
	"github.com/zaheer037/smart-auth/internal/repository"
)

var (
	// ErrInvalidAccessToken indicates the presented token is malformed or its signature failed validation.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the presented token is past its expiry.
	ErrExpiredAccessToken = errors.New("access token expired")
	// ErrInactiveAccount indicates the account has been deactivated.
	ErrInactiveAccount = errors.New("account is deactivated")
)

// TokenService mints access tokens and resolves presented tokens back to
// live user records. The token body is a capability hint only; every
// authorization decision re-reads the user so deactivation and role changes
// take effect immediately.
type TokenService struct {
	users  port.UserRepository
	signer *security.TokenSigner
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(users port.UserRepository, signer *security.TokenSigner) (*TokenService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if signer == nil {
		return nil, fmt.Errorf("token signer is required")
	}
	return &TokenService{users: users, signer: signer}, nil
}

// Issue mints a signed credential for the user and returns it with its
// absolute expiry.
func (s *TokenService) Issue(user domain.User, now time.Time) (string, time.Time, error) {
	token, err := s.signer.Sign(user.ID, string(user.Role))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return token, now.Add(s.signer.TTL()), nil
}

// Authenticate validates a presented token and returns the current user
// record it asserts.
func (s *TokenService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	return user, nil
}
