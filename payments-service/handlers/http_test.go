package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-saga/payments-service/application"
	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/payments-service/infrastructure"
	"github.com/draftea/order-saga/shared/models"
)

func TestPaymentHandlers_GetPayment(t *testing.T) {
	repo := infrastructure.NewMemoryPaymentRepository()
	payment, err := domain.NewPayment("order-1", "customer-1", models.NewMoney(2500, "USD"), domain.PaymentMethodTypeCreditCard, nil)
	require.NoError(t, err)
	require.NoError(t, payment.Fail("Insufficient funds"))
	require.NoError(t, repo.Save(context.Background(), payment))

	r := chi.NewRouter()
	NewPaymentHandlers(application.NewGetPayment(repo)).RegisterRoutes(r)

	tests := []struct {
		name         string
		path         string
		expectedCode int
		expectedBody string
	}{
		{name: "known order", path: "/payments/orders/order-1", expectedCode: http.StatusOK, expectedBody: `"failureReason":"Insufficient funds"`},
		{name: "unknown order", path: "/payments/orders/order-2", expectedCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
		})
	}
}
