package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/repository"
)

// ErrUserNotFound indicates the requested user record does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserService exposes account administration: listing accounts and toggling
// activation.
type UserService struct {
	users port.UserRepository
	now   func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(users port.UserRepository) (*UserService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &UserService{users: users, now: time.Now}, nil
}

// WithClock overrides the internal clock, used in tests.
func (s *UserService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// GetByID returns one user record.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// List returns a page of user records with the total count.
func (s *UserService) List(ctx context.Context, page, limit int64) ([]domain.User, int64, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// SetActive toggles the account's active flag. Deactivation takes effect on
// the next request because every authorization check re-reads the record.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	if err := s.users.SetActive(ctx, id, active, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("set user active: %w", err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}

	return user, nil
}
