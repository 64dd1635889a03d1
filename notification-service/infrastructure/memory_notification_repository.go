package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/draftea/order-saga/notification-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var _ domain.NotificationRepository = (*MemoryNotificationRepository)(nil)

type notificationKey struct {
	orderID          models.ID
	notificationType domain.NotificationType
}

type MemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[notificationKey]domain.Notification
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{notifications: make(map[notificationKey]domain.Notification)}
}

func (r *MemoryNotificationRepository) Save(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := notificationKey{orderID: notification.OrderID, notificationType: notification.Type}
	if stored, ok := r.notifications[key]; ok && stored.Version.Value != notification.Version.Value-1 {
		return domain.ErrNotificationConflict
	}

	r.notifications[key] = *notification
	return nil
}

func (r *MemoryNotificationRepository) Find(_ context.Context, orderID models.ID, notificationType domain.NotificationType) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notification, ok := r.notifications[notificationKey{orderID: orderID, notificationType: notificationType}]
	if !ok {
		return nil, nil
	}
	return &notification, nil
}

func (r *MemoryNotificationRepository) ListByOrderID(_ context.Context, orderID models.ID) ([]*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var notifications []*domain.Notification
	for key, notification := range r.notifications {
		if key.orderID != orderID {
			continue
		}
		n := notification
		notifications = append(notifications, &n)
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].Timestamps.CreatedAt.Before(notifications[j].Timestamps.CreatedAt)
	})
	return notifications, nil
}
