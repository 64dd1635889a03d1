package application

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
)

var ErrInvalidOrder = errors.New("invalid order")

// CreateOrderCommand represents the command to place an order. Prices are
// in minor units of Currency.
type CreateOrderCommand struct {
	CustomerID string            `json:"customerId" validate:"required"`
	Currency   string            `json:"currency"`
	Items      []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

type CreateOrderItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	UnitPrice int64  `json:"unitPrice" validate:"gte=0"`
}

// CreateOrder stores a new order and starts the saga with order.created
type CreateOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	currency        string
	validate        *validator.Validate
	logger          *zap.Logger
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(orderRepository domain.OrderRepository, eventPublisher events.Publisher, currency string, logger *zap.Logger) *CreateOrder {
	return &CreateOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		currency:        currency,
		validate:        validator.New(),
		logger:          logger,
	}
}

// Execute executes the create order use case
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*OrderResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "create_order")
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "orders_created_total", "Total orders placed", 1,
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "order_creation_duration_seconds", "Order creation duration", time.Since(start).Seconds())
	}()

	if err := uc.validate.Struct(cmd); err != nil {
		return nil, errors.Wrap(ErrInvalidOrder, err.Error())
	}

	currency := cmd.Currency
	if currency == "" {
		currency = uc.currency
	}

	items := make([]events.LineItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = events.LineItem{
			ProductID: models.ID(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: models.NewMoney(item.UnitPrice, currency),
		}
	}

	order, err := domain.NewOrder(models.ID(cmd.CustomerID), items)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidOrder, err.Error())
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	if err := uc.eventPublisher.Publish(ctx, order.Created()); err != nil {
		return nil, errors.Wrap(err, "failed to publish order created event")
	}

	uc.markPaymentProcessing(ctx, order)

	logger.Info(ctx, uc.logger, "order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()),
		zap.String("total", order.TotalAmount.String()),
	)

	status = "created"
	return toOrderResponse(order), nil
}

// markPaymentProcessing is best effort: the payment outcome may already
// have moved the order further, in which case the stored order wins.
func (uc *CreateOrder) markPaymentProcessing(ctx context.Context, order *domain.Order) {
	if !order.MarkPaymentProcessing() {
		return
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		logger.Warn(ctx, uc.logger, "order moved on before payment processing was recorded",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)

		if stored, err := uc.orderRepository.FindByID(ctx, order.ID); err == nil && stored != nil {
			*order = *stored
		}
	}
}
