package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/notification-service/application"
	"github.com/draftea/order-saga/notification-service/infrastructure"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/saga"
)

func newDispatcher(repo *infrastructure.MemoryNotificationRepository) *application.DispatchNotification {
	return application.NewDispatchNotification(
		repo,
		infrastructure.NewLogSender(zap.NewNop()),
		infrastructure.NewMemoryDeliveryGuard(),
		application.DispatcherConfig{},
		zap.NewNop(),
	)
}

func TestNotificationHandlers_GetNotifications(t *testing.T) {
	repo := infrastructure.NewMemoryNotificationRepository()
	h := NewNotificationEventHandlers(newDispatcher(repo))
	require.NoError(t, h.Handle(context.Background(), events.OrderCancelled{
		OrderID:   "order-1",
		Reason:    "payment failed",
		Timestamp: time.Now(),
	}))

	r := chi.NewRouter()
	NewNotificationHandlers(application.NewGetNotifications(repo)).RegisterRoutes(r)

	tests := []struct {
		name         string
		path         string
		expectedCode int
		expectedBody string
	}{
		{name: "notified order", path: "/notifications/orders/order-1", expectedCode: http.StatusOK, expectedBody: `"subject":"Order Cancelled - order-1"`},
		{name: "unknown order", path: "/notifications/orders/order-2", expectedCode: http.StatusOK, expectedBody: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
		})
	}
}

func TestNotificationEventHandlers_Register(t *testing.T) {
	h := NewNotificationEventHandlers(newDispatcher(infrastructure.NewMemoryNotificationRepository()))

	choreography := saga.NewChoreography("notification-service", nil, zap.NewNop())
	require.NoError(t, h.Register(choreography))
	assert.ElementsMatch(t, []events.Topic{
		events.TopicOrderCreated,
		events.TopicPaymentSucceeded,
		events.TopicPaymentFailed,
		events.TopicInventoryReserved,
		events.TopicInventoryRejected,
		events.TopicOrderFulfilled,
		events.TopicOrderCancelled,
	}, choreography.Topics())

	err := h.Handle(context.Background(), nil)
	assert.True(t, saga.IsPermanent(err))
}
