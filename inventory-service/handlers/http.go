package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/inventory-service/application"
	"github.com/draftea/order-saga/inventory-service/domain"
)

// InventoryHandlers contains inventory HTTP handlers
type InventoryHandlers struct {
	getInventoryItem *application.GetInventoryItem
	restockItem      *application.RestockItem
}

func NewInventoryHandlers(
	getInventoryItem *application.GetInventoryItem,
	restockItem *application.RestockItem,
) *InventoryHandlers {
	return &InventoryHandlers{
		getInventoryItem: getInventoryItem,
		restockItem:      restockItem,
	}
}

// GetInventoryItem handles stock level requests
func (h *InventoryHandlers) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	query := &application.GetInventoryItemQuery{
		ProductID: chi.URLParam(r, "productID"),
	}

	response, err := h.getInventoryItem.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, application.ErrInventoryItemNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RestockItem handles stock additions, creating unknown products
func (h *InventoryHandlers) RestockItem(w http.ResponseWriter, r *http.Request) {
	var cmd application.RestockItemCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.ProductID = chi.URLParam(r, "productID")

	response, err := h.restockItem.Execute(r.Context(), &cmd)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuantity) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/{productID}", h.GetInventoryItem)
		r.Put("/{productID}", h.RestockItem)
	})
}
