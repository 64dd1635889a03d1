package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/order-service/application"
	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/saga"
)

var _ saga.Handler = (*OrderEventHandlers)(nil)

// OrderEventHandlers follows downstream outcomes and runs the compensating
// path for failed payments and rejected inventory
type OrderEventHandlers struct {
	updateOrderStatus *application.UpdateOrderStatus
}

func NewOrderEventHandlers(updateOrderStatus *application.UpdateOrderStatus) *OrderEventHandlers {
	return &OrderEventHandlers{updateOrderStatus: updateOrderStatus}
}

// Register subscribes the handler to the topics it consumes
func (h *OrderEventHandlers) Register(choreography *saga.Choreography) error {
	for _, topic := range []events.Topic{
		events.TopicPaymentFailed,
		events.TopicInventoryReserved,
		events.TopicInventoryRejected,
		events.TopicOrderFulfilled,
		events.TopicOrderCancelled,
	} {
		if err := choreography.RegisterHandler(topic, h); err != nil {
			return err
		}
	}
	return nil
}

func (h *OrderEventHandlers) Handle(ctx context.Context, event events.Event) error {
	var cmd *application.UpdateOrderStatusCommand

	switch e := event.(type) {
	case events.PaymentFailed:
		cmd = &application.UpdateOrderStatusCommand{OrderID: e.OrderID, Status: domain.OrderStatusPaymentFailed, Reason: e.Reason}
	case events.InventoryReserved:
		cmd = &application.UpdateOrderStatusCommand{OrderID: e.OrderID, Status: domain.OrderStatusInventoryReserved}
	case events.InventoryRejected:
		cmd = &application.UpdateOrderStatusCommand{OrderID: e.OrderID, Status: domain.OrderStatusInventoryRejected, Reason: e.Reason}
	case events.OrderFulfilled:
		cmd = &application.UpdateOrderStatusCommand{OrderID: e.OrderID, Status: domain.OrderStatusFulfilled, TrackingNumber: e.TrackingNumber}
	case events.OrderCancelled:
		cmd = &application.UpdateOrderStatusCommand{OrderID: e.OrderID, Status: domain.OrderStatusCancelled, Reason: e.Reason}
	case events.OrderCreated, events.PaymentSucceeded:
		return nil
	default:
		return saga.Permanent(errors.Errorf("unsupported event %T", event))
	}

	err := h.updateOrderStatus.Execute(ctx, cmd)
	if errors.Is(err, application.ErrOrderNotFound) {
		return saga.Permanent(err)
	}
	return err
}
