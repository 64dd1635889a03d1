package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var (
	_ domain.InventoryRepository   = (*MemoryInventoryRepository)(nil)
	_ domain.ReservationRepository = (*MemoryReservationRepository)(nil)
)

// MemoryInventoryRepository keeps items in process with the same version
// check as the Postgres repository
type MemoryInventoryRepository struct {
	mu    sync.RWMutex
	items map[models.ID]domain.InventoryItem
}

func NewMemoryInventoryRepository() *MemoryInventoryRepository {
	return &MemoryInventoryRepository{items: make(map[models.ID]domain.InventoryItem)}
}

func (r *MemoryInventoryRepository) FindByProductID(_ context.Context, productID models.ID) (*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[productID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *MemoryInventoryRepository) Create(_ context.Context, item *domain.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ProductID]; ok {
		return domain.ErrItemExists
	}
	r.items[item.ProductID] = *item
	return nil
}

func (r *MemoryInventoryRepository) SaveIfVersion(_ context.Context, item *domain.InventoryItem, expected models.Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[item.ProductID]
	if !ok || stored.Version != expected {
		return domain.ErrVersionConflict
	}
	r.items[item.ProductID] = *item
	return nil
}

type MemoryReservationRepository struct {
	mu           sync.RWMutex
	reservations map[models.ID]domain.Reservation
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{reservations: make(map[models.ID]domain.Reservation)}
}

func (r *MemoryReservationRepository) FindByOrderID(_ context.Context, orderID models.ID) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reservation, ok := r.reservations[orderID]
	if !ok {
		return nil, nil
	}
	return &reservation, nil
}

func (r *MemoryReservationRepository) Create(_ context.Context, reservation *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reservations[reservation.OrderID]; ok {
		return domain.ErrReservationExists
	}
	r.reservations[reservation.OrderID] = *reservation
	return nil
}

func (r *MemoryReservationRepository) Update(_ context.Context, reservation *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.reservations[reservation.OrderID]
	if !ok || stored.Version.Value != reservation.Version.Value-1 {
		return domain.ErrReservationConflict
	}
	r.reservations[reservation.OrderID] = *reservation
	return nil
}
