package port

import (
	"context"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

// OTPDeliverer sends a one-time code out-of-band over the channel matching
// the auth method. The concrete email/SMS providers are configured once at
// process start and injected; nothing resolves them from ambient state.
type OTPDeliverer interface {
	Deliver(ctx context.Context, method domain.AuthMethod, recipient, code string, location domain.Location) error
}
