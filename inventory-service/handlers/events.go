package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/inventory-service/application"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/saga"
)

var _ saga.Handler = (*InventoryEventHandlers)(nil)

// InventoryEventHandlers reacts to paid orders and to cancellations
type InventoryEventHandlers struct {
	reserveInventory *application.ReserveInventory
	releaseInventory *application.ReleaseInventory
}

func NewInventoryEventHandlers(
	reserveInventory *application.ReserveInventory,
	releaseInventory *application.ReleaseInventory,
) *InventoryEventHandlers {
	return &InventoryEventHandlers{
		reserveInventory: reserveInventory,
		releaseInventory: releaseInventory,
	}
}

// Register subscribes the handler to the topics it consumes
func (h *InventoryEventHandlers) Register(choreography *saga.Choreography) error {
	for _, topic := range []events.Topic{events.TopicPaymentSucceeded, events.TopicOrderCancelled} {
		if err := choreography.RegisterHandler(topic, h); err != nil {
			return err
		}
	}
	return nil
}

func (h *InventoryEventHandlers) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PaymentSucceeded:
		return h.reserveInventory.Execute(ctx, &application.ReserveInventoryCommand{
			OrderID: e.OrderID,
			Items:   e.Items,
		})
	case events.OrderCancelled:
		return h.releaseInventory.Execute(ctx, &application.ReleaseInventoryCommand{
			OrderID: e.OrderID,
			Reason:  e.Reason,
		})
	case events.OrderCreated, events.PaymentFailed, events.InventoryReserved,
		events.InventoryRejected, events.OrderFulfilled:
		return nil
	default:
		return saga.Permanent(errors.Errorf("unsupported event %T", event))
	}
}
