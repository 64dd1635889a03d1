package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type ListOrdersQuery struct {
	CustomerID string
	Status     string
	Limit      int
}

// ListOrders returns the newest orders, optionally filtered
type ListOrders struct {
	orderRepository domain.OrderRepository
}

func NewListOrders(orderRepository domain.OrderRepository) *ListOrders {
	return &ListOrders{orderRepository: orderRepository}
}

func (uc *ListOrders) Execute(ctx context.Context, query *ListOrdersQuery) ([]*OrderResponse, error) {
	filter := domain.ListOrdersFilter{
		CustomerID: models.ID(query.CustomerID),
		Limit:      query.Limit,
	}

	if query.Status != "" {
		status, err := domain.NewOrderStatus(query.Status)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidOrder, err.Error())
		}
		filter.Status = status
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}

	orders, err := uc.orderRepository.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	responses := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = toOrderResponse(order)
	}
	return responses, nil
}
