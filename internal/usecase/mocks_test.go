package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/repository"
)

// memUserRepo is an in-memory UserRepository that mirrors the conditional
// update semantics of the Mongo implementation.
type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (m *memUserRepo) FindOrCreate(_ context.Context, user domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if matchIdentifier(existing, user.Email, user.Phone) {
			clone := *existing
			return &clone, nil
		}
	}

	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	stored := user
	m.users[user.ID] = &stored

	clone := user
	return &clone, nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memUserRepo) GetByIdentifier(_ context.Context, email, phone string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var emailPtr, phonePtr *string
	if email != "" {
		emailPtr = &email
	}
	if phone != "" {
		phonePtr = &phone
	}

	for _, user := range m.users {
		if matchIdentifier(user, emailPtr, phonePtr) {
			clone := *user
			return &clone, nil
		}
	}

	return nil, repository.ErrNotFound
}

func (m *memUserRepo) SetChallenge(_ context.Context, id string, challenge port.Challenge, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}

	expiry := challenge.ExpiresAt
	user.OTPHash = challenge.Hash
	user.OTPExpiry = &expiry
	user.OTPAttempts = 0
	user.UpdatedAt = now
	return nil
}

func (m *memUserRepo) ClearChallenge(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}

	user.OTPHash = ""
	user.OTPExpiry = nil
	user.OTPAttempts = 0
	user.UpdatedAt = now
	return nil
}

func (m *memUserRepo) IncrementAttempts(_ context.Context, id string, hash string, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok || user.OTPHash != hash || user.OTPAttempts >= limit {
		return 0, repository.ErrNotFound
	}

	user.OTPAttempts++
	return user.OTPAttempts, nil
}

func (m *memUserRepo) ConsumeChallenge(_ context.Context, id string, hash string, limit int, now time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok || user.OTPHash != hash || user.OTPExpiry == nil ||
		!now.Before(*user.OTPExpiry) || user.OTPAttempts >= limit {
		return nil, repository.ErrNotFound
	}

	user.OTPHash = ""
	user.OTPExpiry = nil
	user.OTPAttempts = 0
	user.Verified = true
	user.LoginCount++
	user.LastActiveAt = now
	user.UpdatedAt = now

	clone := *user
	return &clone, nil
}

func (m *memUserRepo) UpdateLastLogin(_ context.Context, id string, ip string, location domain.Location, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}

	user.LastLoginIP = ip
	loc := location
	user.LastLoginLocation = &loc
	user.LastActiveAt = now
	user.UpdatedAt = now
	return nil
}

func (m *memUserRepo) List(_ context.Context, page, limit int64) ([]domain.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, *user)
	}
	return users, int64(len(users)), nil
}

func (m *memUserRepo) SetActive(_ context.Context, id string, active bool, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsActive = active
	user.UpdatedAt = now
	return nil
}

func (m *memUserRepo) CountUsers(_ context.Context) (total, active, verified int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		total++
		if user.IsActive {
			active++
		}
		if user.Verified {
			verified++
		}
	}
	return total, active, verified, nil
}

func (m *memUserRepo) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, user := range m.users {
		if !user.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// mutate applies fn to the stored user, bypassing the repository contract.
// Test setup only.
func (m *memUserRepo) mutate(id string, fn func(*domain.User)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		fn(user)
	}
}

func matchIdentifier(user *domain.User, email, phone *string) bool {
	if email != nil && user.Email != nil && *user.Email == *email {
		return true
	}
	if phone != nil && user.Phone != nil && *user.Phone == *phone {
		return true
	}
	return false
}

var _ port.UserRepository = (*memUserRepo)(nil)

// memLoginRepo is an in-memory append-only LoginRepository.
type memLoginRepo struct {
	mu      sync.Mutex
	seq     int
	records []domain.LoginRecord
}

func newMemLoginRepo() *memLoginRepo {
	return &memLoginRepo{}
}

func (m *memLoginRepo) Append(_ context.Context, record domain.LoginRecord) (*domain.LoginRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	record.ID = fmt.Sprintf("login-%d", m.seq)
	m.records = append(m.records, record)

	clone := record
	return &clone, nil
}

func (m *memLoginRepo) ListByUser(_ context.Context, userID string, page, limit int64) ([]domain.LoginRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.LoginRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			matched = append(matched, m.records[i])
		}
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memLoginRepo) ListByStatus(_ context.Context, status domain.LoginStatus, since time.Time, limit int64) ([]domain.LoginRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.LoginRecord
	for i := len(m.records) - 1; i >= 0 && int64(len(matched)) < limit; i-- {
		r := m.records[i]
		if r.Status == status && !r.CreatedAt.Before(since) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (m *memLoginRepo) ListByIP(_ context.Context, ip string, limit int64) ([]domain.LoginRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.LoginRecord
	for i := len(m.records) - 1; i >= 0 && int64(len(matched)) < limit; i-- {
		if m.records[i].IP == ip {
			matched = append(matched, m.records[i])
		}
	}
	return matched, nil
}

func (m *memLoginRepo) CountByStatusForUser(_ context.Context, userID string) ([]domain.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byStatus := make(map[domain.LoginStatus]*domain.StatusCount)
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		entry, ok := byStatus[r.Status]
		if !ok {
			entry = &domain.StatusCount{Status: r.Status}
			byStatus[r.Status] = entry
		}
		entry.Count++
		if r.CreatedAt.After(entry.LastLogin) {
			entry.LastLogin = r.CreatedAt
		}
	}

	var counts []domain.StatusCount
	for _, entry := range byStatus {
		counts = append(counts, *entry)
	}
	return counts, nil
}

func (m *memLoginRepo) CountTotal(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *memLoginRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, r := range m.records {
		if !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memLoginRepo) CountByStatus(_ context.Context, status domain.LoginStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, r := range m.records {
		if r.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *memLoginRepo) CountByStatusSince(_ context.Context, status domain.LoginStatus, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, r := range m.records {
		if r.Status == status && !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memLoginRepo) DailyTrend(_ context.Context, since time.Time) ([]domain.DailyTrend, error) {
	return nil, nil
}

func (m *memLoginRepo) TopLocations(_ context.Context, since time.Time, limit int64) ([]domain.LocationCount, error) {
	return nil, nil
}

func (m *memLoginRepo) lastRecord() *domain.LoginRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return nil
	}
	clone := m.records[len(m.records)-1]
	return &clone
}

var _ port.LoginRepository = (*memLoginRepo)(nil)

// stubResolver returns a fixed location for every IP.
type stubResolver struct {
	location domain.Location
}

func (r *stubResolver) Resolve(context.Context, string) domain.Location {
	return r.location
}

var _ port.LocationResolver = (*stubResolver)(nil)

// captureDeliverer records deliveries and can simulate provider failure.
type captureDeliverer struct {
	mu         sync.Mutex
	codes      []string
	recipients []string
	methods    []domain.AuthMethod
	fail       bool
}

func (d *captureDeliverer) Deliver(_ context.Context, method domain.AuthMethod, recipient, code string, _ domain.Location) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fail {
		return errors.New("provider unavailable")
	}
	d.methods = append(d.methods, method)
	d.recipients = append(d.recipients, recipient)
	d.codes = append(d.codes, code)
	return nil
}

func (d *captureDeliverer) lastCode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.codes) == 0 {
		return ""
	}
	return d.codes[len(d.codes)-1]
}

var _ port.OTPDeliverer = (*captureDeliverer)(nil)

// captureEvents counts published events.
type captureEvents struct {
	mu        sync.Mutex
	issued    int
	succeeded int
	exhausted int
}

func (e *captureEvents) PublishChallengeIssued(context.Context, domain.ChallengeIssuedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.issued++
	return nil
}

func (e *captureEvents) PublishLoginSucceeded(context.Context, domain.LoginSucceededEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.succeeded++
	return nil
}

func (e *captureEvents) PublishChallengeExhausted(context.Context, domain.ChallengeExhaustedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exhausted++
	return nil
}

var _ port.EventPublisher = (*captureEvents)(nil)
