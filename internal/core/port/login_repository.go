package port

import (
	"context"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

// LoginRepository is the append-only audit store for login records. Append
// is atomic per record; nothing ever updates or deletes an existing entry.
type LoginRepository interface {
	Append(ctx context.Context, record domain.LoginRecord) (*domain.LoginRecord, error)

	// ListByUser returns the user's records newest-first with the total
	// count for pagination.
	ListByUser(ctx context.Context, userID string, page, limit int64) ([]domain.LoginRecord, int64, error)
	ListByStatus(ctx context.Context, status domain.LoginStatus, since time.Time, limit int64) ([]domain.LoginRecord, error)
	ListByIP(ctx context.Context, ip string, limit int64) ([]domain.LoginRecord, error)

	CountByStatusForUser(ctx context.Context, userID string) ([]domain.StatusCount, error)
	CountTotal(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByStatus(ctx context.Context, status domain.LoginStatus) (int64, error)
	CountByStatusSince(ctx context.Context, status domain.LoginStatus, since time.Time) (int64, error)
	DailyTrend(ctx context.Context, since time.Time) ([]domain.DailyTrend, error)
	TopLocations(ctx context.Context, since time.Time, limit int64) ([]domain.LocationCount, error)
}
