package handlers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/payments-service/application"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/saga"
)

var _ saga.Handler = (*PaymentEventHandlers)(nil)

// PaymentEventHandlers charges created orders
type PaymentEventHandlers struct {
	processPayment *application.ProcessPayment
}

// NewPaymentEventHandlers creates new payment event handlers
func NewPaymentEventHandlers(processPayment *application.ProcessPayment) *PaymentEventHandlers {
	return &PaymentEventHandlers{processPayment: processPayment}
}

// Register subscribes the handler to the topics it consumes
func (h *PaymentEventHandlers) Register(choreography *saga.Choreography) error {
	return choreography.RegisterHandler(events.TopicOrderCreated, h)
}

func (h *PaymentEventHandlers) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.OrderCreated:
		return h.processPayment.Execute(ctx, &application.ProcessPaymentCommand{
			OrderID:     e.OrderID,
			CustomerID:  e.CustomerID,
			Items:       e.Items,
			TotalAmount: e.TotalAmount,
		})
	case events.PaymentSucceeded, events.PaymentFailed, events.InventoryReserved,
		events.InventoryRejected, events.OrderFulfilled, events.OrderCancelled:
		return nil
	default:
		return saga.Permanent(errors.Errorf("unsupported event %T", event))
	}
}
