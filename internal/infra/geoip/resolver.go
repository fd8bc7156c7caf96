package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/infra/logger"
)

const defaultTimeout = 5 * time.Second

// Resolver maps IPs to locations via the ipapi JSON endpoint. Lookups are
// bounded by the configured timeout and degrade to the unknown sentinel on
// any failure; a lookup never fails the login that requested it.
type Resolver struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// New constructs a resolver against the given endpoint (e.g.
// "https://ipapi.co").
func New(endpoint string, timeout time.Duration, log *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Resolver{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

type apiResponse struct {
	City      string   `json:"city"`
	Country   string   `json:"country_name"`
	Region    string   `json:"region"`
	Timezone  string   `json:"timezone"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
}

// Resolve implements port.LocationResolver.
func (r *Resolver) Resolve(ctx context.Context, ip string) domain.Location {
	ip = strings.TrimSpace(ip)
	if isPrivate(ip) {
		return domain.DevelopmentLocation()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", r.endpoint, ip), nil)
	if err != nil {
		return domain.UnknownLocation()
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug("location lookup failed", zap.String("ip", logger.MaskIP(ip)), zap.Error(err))
		return domain.UnknownLocation()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.Debug("location lookup rejected",
			zap.String("ip", logger.MaskIP(ip)),
			zap.Int("status", resp.StatusCode),
		)
		return domain.UnknownLocation()
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.UnknownLocation()
	}
	if body.Error {
		return domain.UnknownLocation()
	}

	// Partial responses stay usable; every missing field degrades on its
	// own so a country without a city still feeds the risk comparison.
	return domain.Location{
		City:      orUnknown(body.City),
		Country:   orUnknown(body.Country),
		Region:    orUnknown(body.Region),
		Timezone:  orUnknown(body.Timezone),
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func isPrivate(ip string) bool {
	if ip == "" || ip == "dev-local" || ip == "localhost" {
		return true
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified()
}

var _ port.LocationResolver = (*Resolver)(nil)
