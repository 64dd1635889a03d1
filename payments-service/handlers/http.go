package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/payments-service/application"
)

// PaymentHandlers contains payment HTTP handlers
type PaymentHandlers struct {
	getPayment *application.GetPayment
}

// NewPaymentHandlers creates new payment handlers
func NewPaymentHandlers(getPayment *application.GetPayment) *PaymentHandlers {
	return &PaymentHandlers{
		getPayment: getPayment,
	}
}

// GetPayment handles payment retrieval requests
func (h *PaymentHandlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	query := &application.GetPaymentQuery{
		OrderID: chi.URLParam(r, "orderID"),
	}

	response, err := h.getPayment.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, application.ErrPaymentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers payment routes
func (h *PaymentHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Get("/orders/{orderID}", h.GetPayment)
	})
}
