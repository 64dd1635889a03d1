package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var ErrOrderNotFound = errors.New("order not found")

type GetOrderQuery struct {
	OrderID string
}

// GetOrder use case
type GetOrder struct {
	orderRepository domain.OrderRepository
}

func NewGetOrder(orderRepository domain.OrderRepository) *GetOrder {
	return &GetOrder{orderRepository: orderRepository}
}

func (uc *GetOrder) Execute(ctx context.Context, query *GetOrderQuery) (*OrderResponse, error) {
	if query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	order, err := uc.orderRepository.FindByID(ctx, models.ID(query.OrderID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	return toOrderResponse(order), nil
}
