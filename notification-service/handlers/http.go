package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/draftea/order-saga/notification-service/application"
)

// NotificationHandlers contains notification HTTP handlers
type NotificationHandlers struct {
	getNotifications *application.GetNotifications
}

func NewNotificationHandlers(getNotifications *application.GetNotifications) *NotificationHandlers {
	return &NotificationHandlers{getNotifications: getNotifications}
}

// GetNotifications lists the notifications of an order
func (h *NotificationHandlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	response, err := h.getNotifications.Execute(r.Context(), &application.GetNotificationsQuery{
		OrderID: chi.URLParam(r, "orderID"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers notification routes
func (h *NotificationHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/orders/{orderID}", h.GetNotifications)
	})
}
