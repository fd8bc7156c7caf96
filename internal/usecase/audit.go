package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
)

// AuditService exposes the read side of the login audit trail: per-user
// history and the aggregate views behind the admin dashboard. Everything
// here is read-only; records are appended exclusively by the OTP service.
type AuditService struct {
	users  port.UserRepository
	logins port.LoginRepository
	now    func() time.Time
}

// NewAuditService constructs an AuditService instance.
func NewAuditService(users port.UserRepository, logins port.LoginRepository) (*AuditService, error) {
	if users == nil || logins == nil {
		return nil, fmt.Errorf("user and login repositories are required")
	}
	return &AuditService{users: users, logins: logins, now: time.Now}, nil
}

// WithClock overrides the internal clock, used in tests.
func (s *AuditService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// History returns the user's login records newest-first with the total for
// pagination.
func (s *AuditService) History(ctx context.Context, userID string, page, limit int64) ([]domain.LoginRecord, int64, error) {
	records, total, err := s.logins.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list login history: %w", err)
	}
	return records, total, nil
}

// UserStats summarizes one user's login activity.
type UserStats struct {
	TotalLogins    int64                `json:"total_logins"`
	ByStatus       []domain.StatusCount `json:"by_status"`
	AccountCreated time.Time            `json:"account_created"`
	LastActive     time.Time            `json:"last_active"`
}

// Stats aggregates the user's audit records by status.
func (s *AuditService) Stats(ctx context.Context, user *domain.User) (*UserStats, error) {
	counts, err := s.logins.CountByStatusForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("aggregate login stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c.Count
	}

	return &UserStats{
		TotalLogins:    total,
		ByStatus:       counts,
		AccountCreated: user.CreatedAt,
		LastActive:     user.LastActiveAt,
	}, nil
}

// DashboardSummary is the admin overview of users and login activity.
type DashboardSummary struct {
	TotalUsers       int64                  `json:"total_users"`
	ActiveUsers      int64                  `json:"active_users"`
	VerifiedUsers    int64                  `json:"verified_users"`
	NewUsersThisWeek int64                  `json:"new_users_this_week"`
	TotalLogins      int64                  `json:"total_logins"`
	LoginsLast24h    int64                  `json:"logins_last_24h"`
	SuspiciousLast7d int64                  `json:"suspicious_last_7d"`
	LoginTrend       []domain.DailyTrend    `json:"login_trend"`
	TopLocations     []domain.LocationCount `json:"top_locations"`
}

// Dashboard assembles the aggregate counters and the seven-day trend.
func (s *AuditService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	now := s.now().UTC()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	totalUsers, activeUsers, verifiedUsers, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	newUsers, err := s.users.CountCreatedSince(ctx, weekAgo)
	if err != nil {
		return nil, fmt.Errorf("count new users: %w", err)
	}

	totalLogins, err := s.logins.CountTotal(ctx)
	if err != nil {
		return nil, fmt.Errorf("count logins: %w", err)
	}

	recentLogins, err := s.logins.CountSince(ctx, dayAgo)
	if err != nil {
		return nil, fmt.Errorf("count recent logins: %w", err)
	}

	suspicious, err := s.logins.CountByStatusSince(ctx, domain.LoginStatusSuspicious, weekAgo)
	if err != nil {
		return nil, fmt.Errorf("count suspicious logins: %w", err)
	}

	trend, err := s.logins.DailyTrend(ctx, weekAgo)
	if err != nil {
		return nil, fmt.Errorf("aggregate login trend: %w", err)
	}

	locations, err := s.logins.TopLocations(ctx, weekAgo, 10)
	if err != nil {
		return nil, fmt.Errorf("aggregate top locations: %w", err)
	}

	return &DashboardSummary{
		TotalUsers:       totalUsers,
		ActiveUsers:      activeUsers,
		VerifiedUsers:    verifiedUsers,
		NewUsersThisWeek: newUsers,
		TotalLogins:      totalLogins,
		LoginsLast24h:    recentLogins,
		SuspiciousLast7d: suspicious,
		LoginTrend:       trend,
		TopLocations:     locations,
	}, nil
}

// Suspicious returns suspicious logins within the last number of days.
func (s *AuditService) Suspicious(ctx context.Context, days int, limit int64) ([]domain.LoginRecord, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 50
	}

	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	records, err := s.logins.ListByStatus(ctx, domain.LoginStatusSuspicious, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list suspicious logins: %w", err)
	}

	return records, nil
}

// ByIP returns the most recent logins from one IP address across all users.
func (s *AuditService) ByIP(ctx context.Context, ip string, limit int64) ([]domain.LoginRecord, error) {
	if ip == "" {
		return nil, fmt.Errorf("ip is required")
	}
	if limit <= 0 {
		limit = 50
	}

	records, err := s.logins.ListByIP(ctx, ip, limit)
	if err != nil {
		return nil, fmt.Errorf("list logins by ip: %w", err)
	}

	return records, nil
}
