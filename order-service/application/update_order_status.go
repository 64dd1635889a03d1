package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
)

// UpdateOrderStatusCommand carries a downstream outcome for an order.
// Status is the stage the outcome reports.
type UpdateOrderStatusCommand struct {
	OrderID        models.ID
	Status         domain.OrderStatus
	Reason         string
	TrackingNumber string
}

// UpdateOrderStatus tracks the order through the saga. Payment failures and
// inventory rejections cancel the order and publish order.cancelled; a
// redelivered failure publishes the same event again.
type UpdateOrderStatus struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	logger          *zap.Logger
}

func NewUpdateOrderStatus(orderRepository domain.OrderRepository, eventPublisher events.Publisher, logger *zap.Logger) *UpdateOrderStatus {
	return &UpdateOrderStatus{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

func (uc *UpdateOrderStatus) Execute(ctx context.Context, cmd *UpdateOrderStatusCommand) error {
	ctx, span := telemetry.StartSpan(ctx, "update_order_status",
		trace.WithAttributes(
			attribute.String("order_id", cmd.OrderID.String()),
			attribute.String("status", string(cmd.Status)),
		),
	)
	defer span.End()

	order, err := uc.orderRepository.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return errors.Wrapf(ErrOrderNotFound, "order %s", cmd.OrderID)
	}

	previous := order.Status
	compensating := false

	var changed bool
	switch cmd.Status {
	case domain.OrderStatusPaymentFailed:
		compensating = true
		changed = order.RecordPaymentFailure(cmd.Reason)
	case domain.OrderStatusInventoryRejected:
		compensating = true
		changed = order.RecordInventoryRejection(cmd.Reason)
	case domain.OrderStatusInventoryReserved:
		changed = order.MarkInventoryReserved()
	case domain.OrderStatusFulfilled:
		changed = order.Fulfill(cmd.TrackingNumber)
	case domain.OrderStatusCancelled:
		changed = order.Status != domain.OrderStatusCancelled && order.Cancel(cmd.Reason) == nil
	default:
		return errors.Errorf("unsupported order status update %q", cmd.Status)
	}

	if changed {
		if err := uc.orderRepository.Save(ctx, order); err != nil {
			return errors.Wrap(err, "failed to save order")
		}

		telemetry.RecordCounter(ctx, "order_status_transitions_total", "Order status transitions", 1,
			attribute.String("from", string(previous)),
			attribute.String("to", string(order.Status)),
		)
		logger.Info(ctx, uc.logger, "order status updated",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(order.Status)),
		)
	} else {
		logger.Debug(ctx, uc.logger, "order status unchanged",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)),
			zap.String("update", string(cmd.Status)),
		)
	}

	if !compensating {
		return nil
	}

	cancelled, ok := order.Cancellation()
	if !ok {
		logger.Warn(ctx, uc.logger, "compensation ignored for order that is not cancelled",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)),
		)
		return nil
	}

	if err := uc.eventPublisher.Publish(ctx, cancelled); err != nil {
		return errors.Wrap(err, "failed to publish order cancelled event")
	}
	return nil
}
