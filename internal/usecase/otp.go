package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/infra/config"
	"github.com/zaheer037/smart-auth/internal/infra/logger"
	"github.com/zaheer037/smart-auth/internal/infra/security"
	"github.com/zaheer037/smart-auth/internal/infra/telemetry"
	"github.com/zaheer037/smart-auth/internal/repository"
)

var (
	// ErrInvalidOTP is the single user-facing failure for every
	// challenge-state outcome. Collapsing them defeats enumeration of which
	// condition actually triggered.
	ErrInvalidOTP = errors.New("invalid or expired OTP")
	// ErrMalformedCode indicates the submitted code is not a six-digit number.
	ErrMalformedCode = errors.New("code must be a six-digit number")
	// ErrDeliveryFailed indicates the code could not be sent out-of-band.
	ErrDeliveryFailed = errors.New("could not deliver verification code")
)

// RateLimitedError signals that a non-expired challenge is still pending
// for the user. It is a throttling response, not a failure.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("challenge already pending, retry in %d seconds", e.RemainingSeconds())
}

// RemainingSeconds returns the wait rounded up to whole seconds.
func (e *RateLimitedError) RemainingSeconds() int {
	return int((e.Remaining + time.Second - 1) / time.Second)
}

// Internal verification outcomes. Externally they all collapse into
// ErrInvalidOTP; the distinction feeds logs and metrics only.
const (
	outcomeSuccess     = "success"
	outcomeNoChallenge = "no_challenge"
	outcomeExpired     = "expired"
	outcomeExhausted   = "exhausted"
	outcomeMismatch    = "mismatch"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// RequestContext carries the network context of the inbound request.
type RequestContext struct {
	IP                string
	UserAgent         string
	DeviceFingerprint string
}

// ChallengeReceipt describes an issued challenge to the caller. The code
// itself travels only to the deliverer.
type ChallengeReceipt struct {
	UserID    string
	Method    domain.AuthMethod
	Recipient string
	ExpiresIn time.Duration
}

// LoginResult is the outcome of a successful verification.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
	Verdict   domain.RiskVerdict
	LoginAt   time.Time
}

// OTPService owns the challenge lifecycle: issuance, verification with its
// risk evaluation and audit side effects, and resend.
type OTPService struct {
	cfg       config.OTPSettings
	users     port.UserRepository
	logins    port.LoginRepository
	resolver  port.LocationResolver
	deliverer port.OTPDeliverer
	events    port.EventPublisher
	risk      *RiskEvaluator
	tokens    *TokenService
	metrics   *telemetry.Provider
	log       *zap.Logger
	now       func() time.Time
}

// NewOTPService constructs an OTPService instance.
func NewOTPService(
	cfg config.OTPSettings,
	users port.UserRepository,
	logins port.LoginRepository,
	resolver port.LocationResolver,
	deliverer port.OTPDeliverer,
	events port.EventPublisher,
	risk *RiskEvaluator,
	tokens *TokenService,
	metrics *telemetry.Provider,
	log *zap.Logger,
) (*OTPService, error) {
	if users == nil || logins == nil {
		return nil, fmt.Errorf("user and login repositories are required")
	}
	if resolver == nil || deliverer == nil || events == nil {
		return nil, fmt.Errorf("resolver, deliverer, and event publisher are required")
	}
	if risk == nil || tokens == nil {
		return nil, fmt.Errorf("risk evaluator and token service are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 120 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	return &OTPService{
		cfg:       cfg,
		users:     users,
		logins:    logins,
		resolver:  resolver,
		deliverer: deliverer,
		events:    events,
		risk:      risk,
		tokens:    tokens,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}, nil
}

// WithClock overrides the internal clock, used in tests.
func (s *OTPService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// RequestCode issues a challenge for the identifier, creating the user
// record on first contact. A non-expired pending challenge rejects the
// request with the remaining wait instead of silently overwriting.
func (s *OTPService) RequestCode(ctx context.Context, email, phone string, reqCtx RequestContext) (*ChallengeReceipt, error) {
	now := s.now().UTC()

	template, err := domain.NewUser(email, phone, now)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindOrCreate(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	if user.HasPendingChallenge(now) {
		return nil, &RateLimitedError{Remaining: user.ChallengeRemaining(now)}
	}

	return s.issue(ctx, user, reqCtx, now)
}

// ResendCode supersedes any pending challenge with a fresh one. The
// replacement is a single document update, so no window exists where the
// old code is cleared but the new one is not yet stored. Unlike
// RequestCode it carries no pending-challenge guard; the IP throttle in
// front of the endpoint bounds how often it can fire.
func (s *OTPService) ResendCode(ctx context.Context, email, phone string, reqCtx RequestContext) (*ChallengeReceipt, error) {
	now := s.now().UTC()

	template, err := domain.NewUser(email, phone, now)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindOrCreate(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	return s.issue(ctx, user, reqCtx, now)
}

func (s *OTPService) issue(ctx context.Context, user *domain.User, reqCtx RequestContext, now time.Time) (*ChallengeReceipt, error) {
	code, err := security.GenerateOTP()
	if err != nil {
		return nil, err
	}

	hash, err := security.HashOTP(code, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	challenge := port.Challenge{Hash: hash, ExpiresAt: now.Add(s.cfg.TTL)}
	if err := s.users.SetChallenge(ctx, user.ID, challenge, now); err != nil {
		return nil, fmt.Errorf("store challenge: %w", err)
	}

	method, recipient := s.channel(user)
	location := s.resolver.Resolve(ctx, reqCtx.IP)

	if err := s.deliverer.Deliver(ctx, method, recipient, code, location); err != nil {
		// A code nobody received must not count as issued, otherwise the
		// pending-challenge guard would block retries for the full TTL.
		if clearErr := s.users.ClearChallenge(ctx, user.ID, now); clearErr != nil {
			s.log.Error("rollback challenge after delivery failure",
				zap.String("user_id", user.ID),
				zap.Error(clearErr),
			)
		}
		s.log.Warn("otp delivery failed",
			zap.String("user_id", user.ID),
			zap.String("recipient", logger.MaskIdentifier(recipient)),
			zap.Error(err),
		)
		return nil, ErrDeliveryFailed
	}

	if err := s.events.PublishChallengeIssued(ctx, domain.ChallengeIssuedEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		AuthMethod: method,
		IP:         reqCtx.IP,
		ExpiresAt:  challenge.ExpiresAt,
		IssuedAt:   now,
	}); err != nil {
		s.log.Warn("publish challenge issued event", zap.Error(err))
	}

	s.metrics.ChallengeIssued(string(method))

	s.log.Info("otp challenge issued",
		zap.String("user_id", user.ID),
		zap.String("method", string(method)),
		zap.String("recipient", logger.MaskIdentifier(recipient)),
		zap.String("ip", logger.MaskIP(reqCtx.IP)),
	)

	return &ChallengeReceipt{
		UserID:    user.ID,
		Method:    method,
		Recipient: recipient,
		ExpiresIn: s.cfg.TTL,
	}, nil
}

// VerifyCode checks a submitted code, and on success computes the risk
// verdict, appends the audit record, refreshes the user's login anchors,
// and mints an access token. Every internal failure outcome surfaces as
// the same generic error.
func (s *OTPService) VerifyCode(ctx context.Context, email, phone, code string, reqCtx RequestContext) (*LoginResult, error) {
	now := s.now().UTC()

	if _, err := domain.NewUser(email, phone, now); err != nil {
		return nil, err
	}
	if !codePattern.MatchString(code) {
		return nil, ErrMalformedCode
	}

	user, err := s.users.GetByIdentifier(ctx, email, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	outcome, updated, err := s.verify(ctx, user, code, now)
	if err != nil {
		return nil, err
	}

	s.metrics.Verification(outcome)

	if outcome != outcomeSuccess {
		s.recordFailure(ctx, user, outcome, reqCtx, now)
		s.log.Info("otp verification failed",
			zap.String("user_id", user.ID),
			zap.String("outcome", outcome),
			zap.String("ip", logger.MaskIP(reqCtx.IP)),
		)
		return nil, ErrInvalidOTP
	}

	return s.completeLogin(ctx, user, updated, reqCtx, now)
}

// verify runs the challenge state machine. The store-side conditional
// updates are what serialize two devices racing on the same challenge;
// this method only decides which conditional update to attempt.
func (s *OTPService) verify(ctx context.Context, user *domain.User, code string, now time.Time) (string, *domain.User, error) {
	if user.OTPHash == "" || user.OTPExpiry == nil {
		return outcomeNoChallenge, nil, nil
	}
	if !now.Before(*user.OTPExpiry) {
		return outcomeExpired, nil, nil
	}
	if user.OTPAttempts >= s.cfg.MaxAttempts {
		return outcomeExhausted, nil, nil
	}

	match, err := security.CompareOTP(code, user.OTPHash)
	if err != nil {
		return "", nil, fmt.Errorf("compare otp: %w", err)
	}

	if !match {
		attempts, err := s.users.IncrementAttempts(ctx, user.ID, user.OTPHash, s.cfg.MaxAttempts)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// The challenge changed or hit the limit under our feet.
				return outcomeMismatch, nil, nil
			}
			return "", nil, fmt.Errorf("increment attempts: %w", err)
		}

		if attempts >= s.cfg.MaxAttempts {
			if err := s.events.PublishChallengeExhausted(ctx, domain.ChallengeExhaustedEvent{
				EventID:    uuid.NewString(),
				UserID:     user.ID,
				Attempts:   attempts,
				OccurredAt: now,
			}); err != nil {
				s.log.Warn("publish challenge exhausted event", zap.Error(err))
			}
		}

		return outcomeMismatch, nil, nil
	}

	updated, err := s.users.ConsumeChallenge(ctx, user.ID, user.OTPHash, s.cfg.MaxAttempts, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A concurrent verification consumed the challenge first.
			return outcomeNoChallenge, nil, nil
		}
		return "", nil, fmt.Errorf("consume challenge: %w", err)
	}

	return outcomeSuccess, updated, nil
}

func (s *OTPService) completeLogin(ctx context.Context, previous *domain.User, user *domain.User, reqCtx RequestContext, now time.Time) (*LoginResult, error) {
	location := s.resolver.Resolve(ctx, reqCtx.IP)

	elapsed := now.Sub(previous.LastActiveAt)
	verdict := s.risk.Evaluate(location, reqCtx.IP, previous.LastLoginLocation, previous.LastLoginIP, elapsed)
	s.metrics.Verdict(string(verdict.Status))

	method, _ := s.channel(user)

	record := domain.LoginRecord{
		UserID:            user.ID,
		IP:                reqCtx.IP,
		UserAgent:         reqCtx.UserAgent,
		DeviceFingerprint: reqCtx.DeviceFingerprint,
		Location:          location,
		Status:            verdict.Status,
		RiskScore:         clampScore(verdict.Score),
		RiskFactors:       verdict.Factors,
		AuthMethod:        method,
		Success:           true,
		CreatedAt:         now,
	}
	if _, err := s.logins.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append login record: %w", err)
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, reqCtx.IP, location, now); err != nil {
		return nil, fmt.Errorf("update login anchors: %w", err)
	}
	user.LastLoginIP = reqCtx.IP
	user.LastLoginLocation = &location

	token, expiresAt, err := s.tokens.Issue(*user, now)
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		AuthMethod: method,
		IP:         reqCtx.IP,
		Status:     verdict.Status,
		RiskScore:  clampScore(verdict.Score),
		Factors:    verdict.Factors,
		LoginAt:    now,
	}); err != nil {
		s.log.Warn("publish login succeeded event", zap.Error(err))
	}

	s.log.Info("login verified",
		zap.String("user_id", user.ID),
		zap.String("status", string(verdict.Status)),
		zap.Int("risk_score", verdict.Score),
		zap.String("ip", logger.MaskIP(reqCtx.IP)),
	)

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      *user,
		Verdict:   verdict,
		LoginAt:   now,
	}, nil
}

// recordFailure appends an audit entry for a failed verification. Audit
// write failures are logged, not surfaced; the caller's generic rejection
// stands either way.
func (s *OTPService) recordFailure(ctx context.Context, user *domain.User, outcome string, reqCtx RequestContext, now time.Time) {
	method, _ := s.channel(user)

	record := domain.LoginRecord{
		UserID:        user.ID,
		IP:            reqCtx.IP,
		UserAgent:     reqCtx.UserAgent,
		Location:      s.resolver.Resolve(ctx, reqCtx.IP),
		Status:        domain.LoginStatusSafe,
		AuthMethod:    method,
		Success:       false,
		FailureReason: outcome,
		CreatedAt:     now,
	}
	if _, err := s.logins.Append(ctx, record); err != nil {
		s.log.Error("append failed-login record",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}

func (s *OTPService) channel(user *domain.User) (domain.AuthMethod, string) {
	if user.Email != nil && *user.Email != "" {
		return domain.AuthMethodEmail, *user.Email
	}
	if user.Phone != nil {
		return domain.AuthMethodPhone, *user.Phone
	}
	return domain.AuthMethodEmail, ""
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
