package application

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/fulfillment-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var ErrFulfillmentNotFound = errors.New("fulfillment not found")

type GetFulfillmentQuery struct {
	OrderID string
}

type GetFulfillmentResponse struct {
	FulfillmentID  string `json:"fulfillmentId"`
	OrderID        string `json:"orderId"`
	ReservationID  string `json:"reservationId"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	FailureReason  string `json:"failureReason,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

type GetFulfillment struct {
	fulfillments domain.FulfillmentRepository
}

func NewGetFulfillment(fulfillments domain.FulfillmentRepository) *GetFulfillment {
	return &GetFulfillment{fulfillments: fulfillments}
}

func (uc *GetFulfillment) Execute(ctx context.Context, query *GetFulfillmentQuery) (*GetFulfillmentResponse, error) {
	if query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	fulfillment, err := uc.fulfillments.FindByOrderID(ctx, models.ID(query.OrderID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find fulfillment")
	}
	if fulfillment == nil {
		return nil, ErrFulfillmentNotFound
	}

	return &GetFulfillmentResponse{
		FulfillmentID:  fulfillment.ID.String(),
		OrderID:        fulfillment.OrderID.String(),
		ReservationID:  fulfillment.ReservationID.String(),
		Status:         string(fulfillment.Status),
		TrackingNumber: fulfillment.TrackingNumber,
		FailureReason:  fulfillment.FailureReason,
		CreatedAt:      fulfillment.Timestamps.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      fulfillment.Timestamps.UpdatedAt.Format(time.RFC3339),
	}, nil
}
