package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/order-saga/fulfillment-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var _ domain.FulfillmentRepository = (*MemoryFulfillmentRepository)(nil)

type MemoryFulfillmentRepository struct {
	mu           sync.RWMutex
	fulfillments map[models.ID]domain.Fulfillment
}

func NewMemoryFulfillmentRepository() *MemoryFulfillmentRepository {
	return &MemoryFulfillmentRepository{fulfillments: make(map[models.ID]domain.Fulfillment)}
}

func (r *MemoryFulfillmentRepository) Save(_ context.Context, fulfillment *domain.Fulfillment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.fulfillments[fulfillment.OrderID]; ok && stored.Version.Value != fulfillment.Version.Value-1 {
		return domain.ErrFulfillmentConflict
	}

	r.fulfillments[fulfillment.OrderID] = *fulfillment
	return nil
}

func (r *MemoryFulfillmentRepository) FindByOrderID(_ context.Context, orderID models.ID) (*domain.Fulfillment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fulfillment, ok := r.fulfillments[orderID]
	if !ok {
		return nil, nil
	}
	return &fulfillment, nil
}
