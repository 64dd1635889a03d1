package application

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/notification-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

// Message is a rendered notification. Email is false for events the
// customer is not emailed about; they are only recorded.
type Message struct {
	OrderID    models.ID
	CustomerID models.ID
	Type       domain.NotificationType
	Subject    string
	Body       string
	Email      bool
}

// Render builds the customer message for a domain event
func Render(event events.Event) (Message, error) {
	switch e := event.(type) {
	case events.OrderCreated:
		return Message{
			OrderID:    e.OrderID,
			CustomerID: e.CustomerID,
			Type:       domain.NotificationTypeOrderCreated,
			Subject:    "Order Created - " + e.OrderID.String(),
			Body:       fmt.Sprintf("Your order %s has been created successfully. Total amount: %s", e.OrderID, e.TotalAmount),
			Email:      true,
		}, nil
	case events.PaymentSucceeded:
		return Message{
			OrderID:    e.OrderID,
			CustomerID: e.CustomerID,
			Type:       domain.NotificationTypePaymentSucceeded,
			Subject:    "Payment Successful - " + e.OrderID.String(),
			Body:       fmt.Sprintf("Payment of %s has been processed successfully for order %s", e.Amount, e.OrderID),
			Email:      true,
		}, nil
	case events.PaymentFailed:
		return Message{
			OrderID: e.OrderID,
			Type:    domain.NotificationTypePaymentFailed,
			Subject: "Payment Failed - " + e.OrderID.String(),
			Body:    fmt.Sprintf("Payment failed for order %s. Reason: %s", e.OrderID, e.Reason),
			Email:   true,
		}, nil
	case events.InventoryReserved:
		return Message{
			OrderID: e.OrderID,
			Type:    domain.NotificationTypeInventoryReserved,
			Subject: "Inventory Reserved - " + e.OrderID.String(),
			Body:    fmt.Sprintf("Inventory has been reserved for your order %s", e.OrderID),
		}, nil
	case events.InventoryRejected:
		return Message{
			OrderID: e.OrderID,
			Type:    domain.NotificationTypeInventoryRejected,
			Subject: "Order Cannot Be Fulfilled - " + e.OrderID.String(),
			Body:    fmt.Sprintf("Order %s cannot be fulfilled. Reason: %s", e.OrderID, e.Reason),
			Email:   true,
		}, nil
	case events.OrderFulfilled:
		return Message{
			OrderID: e.OrderID,
			Type:    domain.NotificationTypeOrderFulfilled,
			Subject: "Order Shipped - " + e.OrderID.String(),
			Body:    fmt.Sprintf("Your order %s has been shipped! Tracking number: %s", e.OrderID, e.TrackingNumber),
			Email:   true,
		}, nil
	case events.OrderCancelled:
		return Message{
			OrderID: e.OrderID,
			Type:    domain.NotificationTypeOrderCancelled,
			Subject: "Order Cancelled - " + e.OrderID.String(),
			Body:    fmt.Sprintf("Your order %s has been cancelled. Reason: %s", e.OrderID, e.Reason),
			Email:   true,
		}, nil
	default:
		return Message{}, errors.Errorf("no template for event %T", event)
	}
}
