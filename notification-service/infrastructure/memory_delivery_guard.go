package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/draftea/order-saga/notification-service/domain"
)

var _ domain.DeliveryGuard = (*MemoryDeliveryGuard)(nil)

// MemoryDeliveryGuard is a single process DeliveryGuard
type MemoryDeliveryGuard struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryDeliveryGuard() *MemoryDeliveryGuard {
	return &MemoryDeliveryGuard{claims: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryDeliveryGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiresAt, ok := g.claims[key]; ok && now.Before(expiresAt) {
		return false, nil
	}

	g.claims[key] = now.Add(ttl)
	return true, nil
}

func (g *MemoryDeliveryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.claims, key)
	return nil
}
