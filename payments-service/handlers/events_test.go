package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/payments-service/application"
	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/payments-service/infrastructure"
	"github.com/draftea/order-saga/shared/events"
	sharedmocks "github.com/draftea/order-saga/shared/mocks"
	"github.com/draftea/order-saga/shared/saga"
)

func TestPaymentEventHandlers_IgnoresOtherEvents(t *testing.T) {
	publisher := sharedmocks.NewMockPublisher(t)
	executor := application.NewPaymentExecutor(
		infrastructure.NewSimulatedProvider(infrastructure.SimulatedProviderConfig{}, zap.NewNop()),
		application.ExecutorConfig{},
		zap.NewNop(),
	)
	h := NewPaymentEventHandlers(application.NewProcessPayment(
		infrastructure.NewMemoryPaymentRepository(), executor, publisher, domain.PaymentMethodTypeCreditCard, zap.NewNop(),
	))

	for _, event := range []events.Event{
		events.PaymentSucceeded{OrderID: "order-1"},
		events.PaymentFailed{OrderID: "order-1"},
		events.InventoryReserved{OrderID: "order-1"},
		events.InventoryRejected{OrderID: "order-1"},
		events.OrderFulfilled{OrderID: "order-1"},
		events.OrderCancelled{OrderID: "order-1"},
	} {
		assert.NoError(t, h.Handle(context.Background(), event))
	}

	choreography := saga.NewChoreography("payment-service", nil, zap.NewNop())
	assert.NoError(t, h.Register(choreography))
	assert.Equal(t, []events.Topic{events.TopicOrderCreated}, choreography.Topics())
}
