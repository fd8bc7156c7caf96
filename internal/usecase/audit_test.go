package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

func appendRecord(t *testing.T, logins *memLoginRepo, userID string, status domain.LoginStatus, at time.Time, ip string) {
	t.Helper()

	_, err := logins.Append(context.Background(), domain.LoginRecord{
		UserID:    userID,
		IP:        ip,
		Status:    status,
		Success:   true,
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
}

func TestAuditService_HistoryNewestFirst(t *testing.T) {
	users := newMemUserRepo()
	logins := newMemLoginRepo()
	svc, err := NewAuditService(users, logins)
	if err != nil {
		t.Fatalf("NewAuditService returned error: %v", err)
	}

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		appendRecord(t, logins, "user-1", domain.LoginStatusSafe, base.Add(time.Duration(i)*time.Hour), "1.2.3.4")
	}
	appendRecord(t, logins, "user-2", domain.LoginStatusSafe, base, "5.6.7.8")

	records, total, err := svc.History(context.Background(), "user-1", 1, 3)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(records) != 3 {
		t.Fatalf("expected page of 3, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].CreatedAt.After(records[i-1].CreatedAt) {
			t.Fatalf("expected newest-first ordering, got %v before %v", records[i-1].CreatedAt, records[i].CreatedAt)
		}
	}

	records, _, err = svc.History(context.Background(), "user-1", 2, 3)
	if err != nil {
		t.Fatalf("History page 2 returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 on last page, got %d", len(records))
	}
}

func TestAuditService_Stats(t *testing.T) {
	users := newMemUserRepo()
	logins := newMemLoginRepo()
	svc, err := NewAuditService(users, logins)
	if err != nil {
		t.Fatalf("NewAuditService returned error: %v", err)
	}

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	appendRecord(t, logins, "user-1", domain.LoginStatusSafe, base, "1.2.3.4")
	appendRecord(t, logins, "user-1", domain.LoginStatusSafe, base.Add(time.Hour), "1.2.3.4")
	appendRecord(t, logins, "user-1", domain.LoginStatusSuspicious, base.Add(2*time.Hour), "5.6.7.8")

	user := &domain.User{ID: "user-1", CreatedAt: base.Add(-time.Hour), LastActiveAt: base.Add(2 * time.Hour)}
	stats, err := svc.Stats(context.Background(), user)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TotalLogins != 3 {
		t.Fatalf("expected 3 logins, got %d", stats.TotalLogins)
	}

	byStatus := make(map[domain.LoginStatus]int64)
	for _, c := range stats.ByStatus {
		byStatus[c.Status] = c.Count
	}
	if byStatus[domain.LoginStatusSafe] != 2 || byStatus[domain.LoginStatusSuspicious] != 1 {
		t.Fatalf("unexpected status breakdown: %+v", stats.ByStatus)
	}
}

func TestAuditService_Dashboard(t *testing.T) {
	users := newMemUserRepo()
	logins := newMemLoginRepo()
	svc, err := NewAuditService(users, logins)
	if err != nil {
		t.Fatalf("NewAuditService returned error: %v", err)
	}

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")
	users.mutate(bob.ID, func(u *domain.User) { u.IsActive = false })
	users.mutate(alice.ID, func(u *domain.User) { u.Verified = true })

	appendRecord(t, logins, alice.ID, domain.LoginStatusSafe, now.Add(-time.Hour), "1.2.3.4")
	appendRecord(t, logins, alice.ID, domain.LoginStatusSuspicious, now.Add(-2*24*time.Hour), "5.6.7.8")
	appendRecord(t, logins, bob.ID, domain.LoginStatusSuspicious, now.Add(-10*24*time.Hour), "5.6.7.8")

	summary, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}
	if summary.TotalUsers != 2 || summary.ActiveUsers != 1 || summary.VerifiedUsers != 1 {
		t.Fatalf("unexpected user counts: %+v", summary)
	}
	if summary.TotalLogins != 3 {
		t.Fatalf("expected 3 logins total, got %d", summary.TotalLogins)
	}
	if summary.LoginsLast24h != 1 {
		t.Fatalf("expected 1 login in last 24h, got %d", summary.LoginsLast24h)
	}
	if summary.SuspiciousLast7d != 1 {
		t.Fatalf("expected 1 suspicious login in last 7d, got %d", summary.SuspiciousLast7d)
	}
}

func TestAuditService_Suspicious(t *testing.T) {
	users := newMemUserRepo()
	logins := newMemLoginRepo()
	svc, err := NewAuditService(users, logins)
	if err != nil {
		t.Fatalf("NewAuditService returned error: %v", err)
	}

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	appendRecord(t, logins, "user-1", domain.LoginStatusSuspicious, now.Add(-time.Hour), "1.2.3.4")
	appendRecord(t, logins, "user-1", domain.LoginStatusSafe, now.Add(-time.Hour), "1.2.3.4")
	appendRecord(t, logins, "user-2", domain.LoginStatusSuspicious, now.Add(-9*24*time.Hour), "5.6.7.8")

	records, err := svc.Suspicious(context.Background(), 7, 50)
	if err != nil {
		t.Fatalf("Suspicious returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 recent suspicious record, got %d", len(records))
	}
	if records[0].UserID != "user-1" {
		t.Fatalf("expected user-1 record, got %s", records[0].UserID)
	}
}

func TestAuditService_ByIP(t *testing.T) {
	users := newMemUserRepo()
	logins := newMemLoginRepo()
	svc, err := NewAuditService(users, logins)
	if err != nil {
		t.Fatalf("NewAuditService returned error: %v", err)
	}

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	appendRecord(t, logins, "user-1", domain.LoginStatusSafe, now, "1.2.3.4")
	appendRecord(t, logins, "user-2", domain.LoginStatusSafe, now, "1.2.3.4")
	appendRecord(t, logins, "user-3", domain.LoginStatusSafe, now, "9.9.9.9")

	records, err := svc.ByIP(context.Background(), "1.2.3.4", 50)
	if err != nil {
		t.Fatalf("ByIP returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records for ip, got %d", len(records))
	}

	if _, err := svc.ByIP(context.Background(), "", 50); err == nil {
		t.Fatalf("expected error for empty ip")
	}
}

func TestAuditService_ConcurrentAppends(t *testing.T) {
	users := newMemUserRepo()
	logins := newMemLoginRepo()
	svc, err := NewAuditService(users, logins)
	if err != nil {
		t.Fatalf("NewAuditService returned error: %v", err)
	}

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	const workers = 16

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := logins.Append(context.Background(), domain.LoginRecord{
				UserID:    fmt.Sprintf("user-%d", i),
				IP:        "1.2.3.4",
				Status:    domain.LoginStatusSafe,
				Success:   true,
				CreatedAt: now,
			})
			if err != nil {
				t.Errorf("Append returned error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		_, total, err := svc.History(context.Background(), fmt.Sprintf("user-%d", i), 1, 10)
		if err != nil {
			t.Fatalf("History returned error: %v", err)
		}
		if total != 1 {
			t.Fatalf("expected exactly one record for user-%d, got %d", i, total)
		}
	}
}
