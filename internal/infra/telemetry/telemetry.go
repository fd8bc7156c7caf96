package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zaheer037/smart-auth/internal/infra/config"
)

// Provider holds the domain-level metric collectors. HTTP request metrics
// are registered separately by the transport layer.
type Provider struct {
	challengesIssued *prometheus.CounterVec
	verifications    *prometheus.CounterVec
	verdicts         *prometheus.CounterVec
}

// Attach registers the domain collectors on the default registry and
// returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	namespace := cfg.Telemetry.Namespace
	if namespace == "" {
		namespace = "smartauth"
	}

	issued := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "otp",
		Name:      "challenges_issued_total",
		Help:      "Total number of OTP challenges issued, partitioned by delivery method.",
	}, []string{"method"})

	verifications := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "otp",
		Name:      "verifications_total",
		Help:      "Total number of OTP verification attempts, partitioned by outcome.",
	}, []string{"outcome"})

	verdicts := promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "verdicts_total",
		Help:      "Total number of risk verdicts computed, partitioned by status.",
	}, []string{"status"})

	return &Provider{
		challengesIssued: issued,
		verifications:    verifications,
		verdicts:         verdicts,
	}, nil
}

// ChallengeIssued records one issued challenge for the given delivery method.
func (p *Provider) ChallengeIssued(method string) {
	if p == nil {
		return
	}
	p.challengesIssued.WithLabelValues(method).Inc()
}

// Verification records one verification attempt with its outcome, e.g.
// "success", "expired", "exhausted", "mismatch", "no_challenge".
func (p *Provider) Verification(outcome string) {
	if p == nil {
		return
	}
	p.verifications.WithLabelValues(outcome).Inc()
}

// Verdict records one computed risk verdict by status.
func (p *Provider) Verdict(status string) {
	if p == nil {
		return
	}
	p.verdicts.WithLabelValues(status).Inc()
}
