package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/infra/logger"
)

// LoggingDispatcher implements port.OTPDeliverer by logging codes instead
// of sending them. It stands in for the external email/SMS providers in
// development and tests; production deployments swap in real provider
// adapters at process start.
type LoggingDispatcher struct {
	log *zap.Logger
}

// NewLoggingDispatcher constructs the development dispatcher.
func NewLoggingDispatcher(log *zap.Logger) *LoggingDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingDispatcher{log: log}
}

// Deliver logs the code with a masked recipient.
func (d *LoggingDispatcher) Deliver(_ context.Context, method domain.AuthMethod, recipient, code string, location domain.Location) error {
	d.log.Info("otp delivery (development)",
		zap.String("method", string(method)),
		zap.String("recipient", logger.MaskIdentifier(recipient)),
		zap.String("code", code),
		zap.String("city", location.City),
		zap.String("country", location.Country),
	)
	return nil
}

var _ port.OTPDeliverer = (*LoggingDispatcher)(nil)
