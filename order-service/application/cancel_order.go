package application

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/models"
)

const CustomerCancellationReason = "cancelled by customer"

type CancelOrderCommand struct {
	OrderID string
	Reason  string `json:"reason"`
}

// CancelOrder cancels an order on request. The order.cancelled event is
// published on every call for a cancelled order so a retried request
// recovers a failed publish.
type CancelOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	logger          *zap.Logger
}

func NewCancelOrder(orderRepository domain.OrderRepository, eventPublisher events.Publisher, logger *zap.Logger) *CancelOrder {
	return &CancelOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

func (uc *CancelOrder) Execute(ctx context.Context, cmd *CancelOrderCommand) (*OrderResponse, error) {
	order, err := uc.orderRepository.FindByID(ctx, models.ID(cmd.OrderID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	reason := cmd.Reason
	if reason == "" {
		reason = CustomerCancellationReason
	}

	if order.Status != domain.OrderStatusCancelled {
		if err := order.Cancel(reason); err != nil {
			return nil, err
		}

		if err := uc.orderRepository.Save(ctx, order); err != nil {
			return nil, errors.Wrap(err, "failed to save order")
		}

		logger.Info(ctx, uc.logger, "order cancelled",
			zap.String("order_id", order.ID.String()),
			zap.String("reason", reason),
		)
	}

	cancelled, _ := order.Cancellation()
	if err := uc.eventPublisher.Publish(ctx, cancelled); err != nil {
		return nil, errors.Wrap(err, "failed to publish order cancelled event")
	}

	return toOrderResponse(order), nil
}
