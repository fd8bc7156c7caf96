package port

import (
	"context"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

// LocationResolver maps an IP address to a best-effort location.
// Implementations must be bounded in time and degrade to the unknown
// sentinel instead of returning an error that would fail a login.
type LocationResolver interface {
	Resolve(ctx context.Context, ip string) domain.Location
}
