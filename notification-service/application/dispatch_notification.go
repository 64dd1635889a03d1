package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/notification-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/resilience"
	"github.com/draftea/order-saga/shared/telemetry"
)

const (
	DefaultRecipient = "customer@example.com"
	DefaultClaimTTL  = 24 * time.Hour
)

type DispatcherConfig struct {
	Recipient string
	ClaimTTL  time.Duration
	Retry     resilience.RetryConfig
}

// DispatchNotification records a notification for every domain event and
// emails the customer at most once per order and event type. Delivery is
// best effort: a send that keeps failing is recorded as failed and the
// event is acknowledged.
type DispatchNotification struct {
	notifications domain.NotificationRepository
	sender        domain.Sender
	guard         domain.DeliveryGuard
	config        DispatcherConfig
	logger        *zap.Logger
}

func NewDispatchNotification(
	notifications domain.NotificationRepository,
	sender domain.Sender,
	guard domain.DeliveryGuard,
	config DispatcherConfig,
	logger *zap.Logger,
) *DispatchNotification {
	if config.Recipient == "" {
		config.Recipient = DefaultRecipient
	}
	if config.ClaimTTL <= 0 {
		config.ClaimTTL = DefaultClaimTTL
	}

	return &DispatchNotification{
		notifications: notifications,
		sender:        sender,
		guard:         guard,
		config:        config,
		logger:        logger,
	}
}

func (uc *DispatchNotification) Execute(ctx context.Context, event events.Event) error {
	message, err := Render(event)
	if err != nil {
		return err
	}

	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "dispatch_notification",
		trace.WithAttributes(
			attribute.String("order_id", message.OrderID.String()),
			attribute.String("type", string(message.Type)),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "notifications_total", "Total notifications dispatched", 1,
			attribute.String("type", string(message.Type)),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "notification_duration_seconds", "Notification dispatch duration", time.Since(start).Seconds())
	}()

	notification, err := uc.notifications.Find(ctx, message.OrderID, message.Type)
	if err != nil {
		return errors.Wrap(err, "failed to find notification")
	}

	switch {
	case notification == nil:
		notification, err = domain.NewNotification(message.OrderID, message.CustomerID, message.Type, uc.config.Recipient, message.Subject, message.Body)
		if err != nil {
			return err
		}
		if err := uc.notifications.Save(ctx, notification); err != nil {
			return errors.Wrap(err, "failed to save pending notification")
		}
	case notification.IsTerminal():
		logger.Debug(ctx, uc.logger, "notification already dispatched",
			zap.String("order_id", notification.OrderID.String()),
			zap.String("type", string(notification.Type)),
		)
		status = "duplicate"
		return nil
	}

	if message.Email {
		err = uc.deliver(ctx, notification)
	}
	if err != nil {
		logger.Error(ctx, uc.logger, "notification delivery failed",
			zap.String("order_id", notification.OrderID.String()),
			zap.String("type", string(notification.Type)),
			zap.Error(err),
		)
		err = notification.MarkFailed(err.Error())
	} else {
		err = notification.MarkSent()
	}
	if err != nil {
		return errors.Wrap(err, "failed to apply delivery outcome")
	}

	if err := uc.notifications.Save(ctx, notification); err != nil {
		return errors.Wrap(err, "failed to save notification status")
	}

	logger.Info(ctx, uc.logger, "notification dispatched",
		zap.String("order_id", notification.OrderID.String()),
		zap.String("type", string(notification.Type)),
		zap.String("status", string(notification.Status)),
	)

	status = string(notification.Status)
	return nil
}

// deliver sends the email unless an earlier attempt already handed it to
// the sender
func (uc *DispatchNotification) deliver(ctx context.Context, notification *domain.Notification) error {
	key := "notification:" + notification.OrderID.String() + ":" + string(notification.Type)

	claimed, err := uc.guard.Claim(ctx, key, uc.config.ClaimTTL)
	if err != nil {
		logger.Warn(ctx, uc.logger, "delivery guard unavailable, sending anyway",
			zap.String("key", key),
			zap.Error(err),
		)
		claimed = true
	}
	if !claimed {
		logger.Info(ctx, uc.logger, "email already sent by an earlier delivery",
			zap.String("key", key),
		)
		return nil
	}

	_, err = resilience.Retry(ctx, uc.config.Retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, uc.sender.Send(ctx, domain.Email{
			To:      notification.Recipient,
			Subject: notification.Subject,
			Body:    notification.Body,
		})
	})
	if err != nil {
		if releaseErr := uc.guard.Release(ctx, key); releaseErr != nil {
			logger.Warn(ctx, uc.logger, "failed to release delivery claim", zap.String("key", key), zap.Error(releaseErr))
		}
		return err
	}

	return nil
}
