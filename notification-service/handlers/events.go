package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/notification-service/application"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/saga"
)

var _ saga.Handler = (*NotificationEventHandlers)(nil)

// NotificationEventHandlers tells the customer about every step of the saga
type NotificationEventHandlers struct {
	dispatch *application.DispatchNotification
}

func NewNotificationEventHandlers(dispatch *application.DispatchNotification) *NotificationEventHandlers {
	return &NotificationEventHandlers{dispatch: dispatch}
}

// Register subscribes the handler to the topics it consumes
func (h *NotificationEventHandlers) Register(choreography *saga.Choreography) error {
	topics := []events.Topic{
		events.TopicOrderCreated,
		events.TopicPaymentSucceeded,
		events.TopicPaymentFailed,
		events.TopicInventoryReserved,
		events.TopicInventoryRejected,
		events.TopicOrderFulfilled,
		events.TopicOrderCancelled,
	}
	for _, topic := range topics {
		if err := choreography.RegisterHandler(topic, h); err != nil {
			return err
		}
	}
	return nil
}

func (h *NotificationEventHandlers) Handle(ctx context.Context, event events.Event) error {
	switch event.(type) {
	case events.OrderCreated, events.PaymentSucceeded, events.PaymentFailed,
		events.InventoryReserved, events.InventoryRejected, events.OrderFulfilled, events.OrderCancelled:
		return h.dispatch.Execute(ctx, event)
	default:
		return saga.Permanent(errors.Errorf("unsupported event %T", event))
	}
}
