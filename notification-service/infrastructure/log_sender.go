package infrastructure

import (
	"context"

	"go.uber.org/zap"

	"github.com/draftea/order-saga/notification-service/domain"
	"github.com/draftea/order-saga/shared/logger"
)

var _ domain.Sender = (*LogSender)(nil)

// LogSender writes emails to the log instead of sending them. Used locally
// and in the sandbox.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email domain.Email) error {
	logger.Info(ctx, s.logger, "email",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body),
	)
	return nil
}
