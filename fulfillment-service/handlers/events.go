package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/fulfillment-service/application"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/saga"
)

var _ saga.Handler = (*FulfillmentEventHandlers)(nil)

// FulfillmentEventHandlers ships orders once their stock is reserved
type FulfillmentEventHandlers struct {
	fulfillOrder *application.FulfillOrder
}

func NewFulfillmentEventHandlers(fulfillOrder *application.FulfillOrder) *FulfillmentEventHandlers {
	return &FulfillmentEventHandlers{fulfillOrder: fulfillOrder}
}

// Register subscribes the handler to the topics it consumes
func (h *FulfillmentEventHandlers) Register(choreography *saga.Choreography) error {
	return choreography.RegisterHandler(events.TopicInventoryReserved, h)
}

func (h *FulfillmentEventHandlers) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.InventoryReserved:
		return h.fulfillOrder.Execute(ctx, &application.FulfillOrderCommand{
			OrderID:       e.OrderID,
			ReservationID: e.ReservationID,
		})
	case events.OrderCreated, events.PaymentSucceeded, events.PaymentFailed,
		events.InventoryRejected, events.OrderFulfilled, events.OrderCancelled:
		return nil
	default:
		return saga.Permanent(errors.Errorf("unsupported event %T", event))
	}
}
