package application

import (
	"time"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

// OrderResponse represents an order returned by the API
type OrderResponse struct {
	OrderID            string            `json:"orderId"`
	CustomerID         string            `json:"customerId"`
	Items              []events.LineItem `json:"items"`
	TotalAmount        models.Money      `json:"totalAmount"`
	Status             string            `json:"status"`
	CancellationReason string            `json:"cancellationReason,omitempty"`
	TrackingNumber     string            `json:"trackingNumber,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

func toOrderResponse(order *domain.Order) *OrderResponse {
	return &OrderResponse{
		OrderID:            order.ID.String(),
		CustomerID:         order.CustomerID.String(),
		Items:              order.Items,
		TotalAmount:        order.TotalAmount,
		Status:             string(order.Status),
		CancellationReason: order.CancellationReason,
		TrackingNumber:     order.TrackingNumber,
		CreatedAt:          order.Timestamps.CreatedAt,
		UpdatedAt:          order.Timestamps.UpdatedAt,
	}
}
