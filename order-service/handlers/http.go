package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/order-service/application"
	"github.com/draftea/order-saga/order-service/domain"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder *application.CreateOrder
	getOrder    *application.GetOrder
	listOrders  *application.ListOrders
	cancelOrder *application.CancelOrder
}

func NewOrderHandlers(
	createOrder *application.CreateOrder,
	getOrder *application.GetOrder,
	listOrders *application.ListOrders,
	cancelOrder *application.CancelOrder,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder: createOrder,
		getOrder:    getOrder,
		listOrders:  listOrders,
		cancelOrder: cancelOrder,
	}
}

// CreateOrder handles order placement
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	response, err := h.getOrder.Execute(r.Context(), &application.GetOrderQuery{
		OrderID: chi.URLParam(r, "orderID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ListOrders handles order listing, filtered by customerId and status
func (h *OrderHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := &application.ListOrdersQuery{
		CustomerID: r.URL.Query().Get("customerId"),
		Status:     r.URL.Query().Get("status"),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		query.Limit = n
	}

	response, err := h.listOrders.Execute(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CancelOrder handles cancellation requests. The body is optional.
func (h *OrderHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CancelOrderCommand
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	cmd.OrderID = chi.URLParam(r, "orderID")

	response, err := h.cancelOrder.Execute(r.Context(), &cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidOrder):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, application.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrOrderFulfilled), errors.Is(err, domain.ErrOrderConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)
		r.Put("/{orderID}/cancel", h.CancelOrder)
	})
}
