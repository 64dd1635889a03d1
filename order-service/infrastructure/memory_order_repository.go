package infrastructure

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var _ domain.OrderRepository = (*MemoryOrderRepository)(nil)

// MemoryOrderRepository keeps orders in process with the same version rule
// as the Postgres repository
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[models.ID]domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[models.ID]domain.Order)}
}

func (r *MemoryOrderRepository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.orders[order.ID]; ok && stored.Version.Value != order.Version.Value-1 {
		return domain.ErrOrderConflict
	}

	copied := *order
	copied.Items = slices.Clone(order.Items)
	r.orders[order.ID] = copied
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id models.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	order.Items = slices.Clone(order.Items)
	return &order, nil
}

func (r *MemoryOrderRepository) List(_ context.Context, filter domain.ListOrdersFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []*domain.Order
	for _, order := range r.orders {
		if !filter.CustomerID.IsZero() && order.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		order.Items = slices.Clone(order.Items)
		orders = append(orders, &order)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].Timestamps.CreatedAt.After(orders[j].Timestamps.CreatedAt)
	})

	if filter.Limit > 0 && len(orders) > filter.Limit {
		orders = orders[:filter.Limit]
	}
	return orders, nil
}
