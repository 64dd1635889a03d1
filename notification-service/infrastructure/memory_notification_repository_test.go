package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-saga/notification-service/domain"
)

func TestMemoryNotificationRepository_Save(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	ctx := context.Background()

	found, err := repo.Find(ctx, "order-1", domain.NotificationTypeOrderCreated)
	require.NoError(t, err)
	assert.Nil(t, found)

	notification, err := domain.NewNotification("order-1", "customer-1", domain.NotificationTypeOrderCreated, "a@example.com", "subject", "body")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, notification))

	stale := *notification
	require.NoError(t, notification.MarkSent())
	require.NoError(t, repo.Save(ctx, notification))

	require.NoError(t, stale.MarkFailed("late"))
	assert.ErrorIs(t, repo.Save(ctx, &stale), domain.ErrNotificationConflict)

	found, err = repo.Find(ctx, "order-1", domain.NotificationTypeOrderCreated)
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationStatusSent, found.Status)
}

func TestMemoryNotificationRepository_ListByOrderID(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	ctx := context.Background()

	types := []domain.NotificationType{
		domain.NotificationTypeOrderCreated,
		domain.NotificationTypePaymentSucceeded,
		domain.NotificationTypeOrderFulfilled,
	}
	for _, notificationType := range types {
		notification, err := domain.NewNotification("order-1", "customer-1", notificationType, "a@example.com", "subject", "body")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, notification))
	}
	other, err := domain.NewNotification("order-2", "customer-1", domain.NotificationTypeOrderCreated, "a@example.com", "subject", "body")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	listed, err := repo.ListByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i := 1; i < len(listed); i++ {
		assert.False(t, listed[i].Timestamps.CreatedAt.Before(listed[i-1].Timestamps.CreatedAt))
	}

	listed, err = repo.ListByOrderID(ctx, "order-3")
	require.NoError(t, err)
	assert.Empty(t, listed)
}
