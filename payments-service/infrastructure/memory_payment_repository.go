package infrastructure

import (
	"context"
	"slices"
	"sync"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var _ domain.PaymentRepository = (*MemoryPaymentRepository)(nil)

// MemoryPaymentRepository keeps payments in process with the same version
// rule as the Postgres repository
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[models.ID]domain.Payment
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[models.ID]domain.Payment)}
}

func (r *MemoryPaymentRepository) Save(_ context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.payments[payment.OrderID]; ok && stored.Version.Value != payment.Version.Value-1 {
		return domain.ErrPaymentConflict
	}

	copied := *payment
	copied.Items = slices.Clone(payment.Items)
	r.payments[payment.OrderID] = copied
	return nil
}

func (r *MemoryPaymentRepository) FindByOrderID(_ context.Context, orderID models.ID) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[orderID]
	if !ok {
		return nil, nil
	}
	payment.Items = slices.Clone(payment.Items)
	return &payment, nil
}
