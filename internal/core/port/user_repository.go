package port

import (
	"context"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

// Challenge is the OTP state written to a user record in one atomic update.
type Challenge struct {
	Hash      string
	ExpiresAt time.Time
}

// UserRepository exposes persistence behavior for users. All challenge
// mutations are conditional read-modify-writes keyed by user id so that
// concurrent verifications against the same challenge serialize at the
// store.
type UserRepository interface {
	// FindOrCreate returns the user for the identifier, inserting the
	// supplied record when none exists yet.
	FindOrCreate(ctx context.Context, user domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIdentifier(ctx context.Context, email, phone string) (*domain.User, error)

	// SetChallenge replaces any stored challenge with the supplied one and
	// resets the attempt counter, as a single document update.
	SetChallenge(ctx context.Context, id string, challenge Challenge, now time.Time) error
	// ClearChallenge unconditionally removes the stored challenge.
	ClearChallenge(ctx context.Context, id string, now time.Time) error
	// IncrementAttempts adds one failed attempt, guarded by the stored hash
	// still matching and the counter still being below the limit. Returns
	// the new counter value.
	IncrementAttempts(ctx context.Context, id string, hash string, limit int) (int, error)
	// ConsumeChallenge atomically clears the challenge and applies the
	// trust-field updates for a successful verification. The filter
	// re-asserts the hash, non-expiry, and remaining attempts so exactly
	// one concurrent caller can win. Returns ErrNotFound when the
	// challenge was already consumed or no longer qualifies.
	ConsumeChallenge(ctx context.Context, id string, hash string, limit int, now time.Time) (*domain.User, error)

	// UpdateLastLogin caches the latest IP and location on the user record
	// for the next risk evaluation.
	UpdateLastLogin(ctx context.Context, id string, ip string, location domain.Location, now time.Time) error

	List(ctx context.Context, page, limit int64) ([]domain.User, int64, error)
	SetActive(ctx context.Context, id string, active bool, now time.Time) error
	CountUsers(ctx context.Context) (total, active, verified int64, err error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}
