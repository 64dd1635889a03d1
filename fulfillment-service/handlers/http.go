package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/fulfillment-service/application"
)

// FulfillmentHandlers contains fulfillment HTTP handlers
type FulfillmentHandlers struct {
	getFulfillment *application.GetFulfillment
}

func NewFulfillmentHandlers(getFulfillment *application.GetFulfillment) *FulfillmentHandlers {
	return &FulfillmentHandlers{getFulfillment: getFulfillment}
}

// GetFulfillment handles fulfillment retrieval by order
func (h *FulfillmentHandlers) GetFulfillment(w http.ResponseWriter, r *http.Request) {
	response, err := h.getFulfillment.Execute(r.Context(), &application.GetFulfillmentQuery{
		OrderID: chi.URLParam(r, "orderID"),
	})
	if err != nil {
		if errors.Is(err, application.ErrFulfillmentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers fulfillment routes
func (h *FulfillmentHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/fulfillments", func(r chi.Router) {
		r.Get("/orders/{orderID}", h.GetFulfillment)
	})
}
