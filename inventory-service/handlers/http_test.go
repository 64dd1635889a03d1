package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/inventory-service/application"
	"github.com/draftea/order-saga/inventory-service/infrastructure"
)

func newTestRouter() *chi.Mux {
	repo := infrastructure.NewMemoryInventoryRepository()
	engine := application.NewReservationEngine(repo, application.EngineConfig{}, zap.NewNop())

	r := chi.NewRouter()
	NewInventoryHandlers(
		application.NewGetInventoryItem(repo),
		application.NewRestockItem(engine, repo),
	).RegisterRoutes(r)
	return r
}

func TestInventoryHandlers(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name         string
		method       string
		path         string
		body         string
		expectedCode int
		expectedBody string
	}{
		{name: "unknown product", method: http.MethodGet, path: "/inventory/product-1", expectedCode: http.StatusNotFound},
		{name: "invalid body", method: http.MethodPut, path: "/inventory/product-1", body: "{", expectedCode: http.StatusBadRequest},
		{name: "zero quantity", method: http.MethodPut, path: "/inventory/product-1", body: `{"quantity":0}`, expectedCode: http.StatusBadRequest},
		{
			name:         "restock creates the product",
			method:       http.MethodPut,
			path:         "/inventory/product-1",
			body:         `{"productName":"Widget","quantity":7}`,
			expectedCode: http.StatusOK,
			expectedBody: `"availableQuantity":7`,
		},
		{name: "stock is readable", method: http.MethodGet, path: "/inventory/product-1", expectedCode: http.StatusOK, expectedBody: `"productName":"Widget"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
		})
	}
}
