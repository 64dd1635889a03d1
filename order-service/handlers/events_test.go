package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/order-service/application"
	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/order-service/infrastructure"
	"github.com/draftea/order-saga/shared/events"
	sharedmocks "github.com/draftea/order-saga/shared/mocks"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/saga"
)

func TestOrderEventHandlers_Handle(t *testing.T) {
	repo := infrastructure.NewMemoryOrderRepository()
	h := NewOrderEventHandlers(application.NewUpdateOrderStatus(repo, sharedmocks.NewMockPublisher(t), zap.NewNop()))

	order, err := domain.NewOrder("customer-1", []events.LineItem{{ProductID: "product-a", Quantity: 1, UnitPrice: models.NewMoney(1000, "USD")}})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), order))

	assert.NoError(t, h.Handle(context.Background(), events.OrderCreated{OrderID: order.ID}))
	assert.NoError(t, h.Handle(context.Background(), events.PaymentSucceeded{OrderID: order.ID}))
	assert.NoError(t, h.Handle(context.Background(), events.InventoryReserved{OrderID: order.ID}))
	assert.NoError(t, h.Handle(context.Background(), events.OrderFulfilled{OrderID: order.ID, TrackingNumber: "TRK-1234ABCD"}))

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFulfilled, stored.Status)

	err = h.Handle(context.Background(), events.InventoryReserved{OrderID: "missing"})
	assert.True(t, saga.IsPermanent(err))

	choreography := saga.NewChoreography("order-service", nil, zap.NewNop())
	require.NoError(t, h.Register(choreography))
	assert.ElementsMatch(t, []events.Topic{
		events.TopicPaymentFailed,
		events.TopicInventoryReserved,
		events.TopicInventoryRejected,
		events.TopicOrderFulfilled,
		events.TopicOrderCancelled,
	}, choreography.Topics())
}
