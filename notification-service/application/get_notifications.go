package application

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/notification-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

type GetNotificationsQuery struct {
	OrderID string
}

type NotificationResponse struct {
	NotificationID string `json:"notificationId"`
	OrderID        string `json:"orderId"`
	CustomerID     string `json:"customerId,omitempty"`
	Type           string `json:"type"`
	Recipient      string `json:"recipient"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	Status         string `json:"status"`
	FailureReason  string `json:"failureReason,omitempty"`
	CreatedAt      string `json:"createdAt"`
	SentAt         string `json:"sentAt,omitempty"`
}

// GetNotifications lists what an order's customer was told
type GetNotifications struct {
	notifications domain.NotificationRepository
}

func NewGetNotifications(notifications domain.NotificationRepository) *GetNotifications {
	return &GetNotifications{notifications: notifications}
}

func (uc *GetNotifications) Execute(ctx context.Context, query *GetNotificationsQuery) ([]*NotificationResponse, error) {
	if query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	notifications, err := uc.notifications.ListByOrderID(ctx, models.ID(query.OrderID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	responses := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		response := &NotificationResponse{
			NotificationID: n.ID.String(),
			OrderID:        n.OrderID.String(),
			CustomerID:     n.CustomerID.String(),
			Type:           string(n.Type),
			Recipient:      n.Recipient,
			Subject:        n.Subject,
			Body:           n.Body,
			Status:         string(n.Status),
			FailureReason:  n.FailureReason,
			CreatedAt:      n.Timestamps.CreatedAt.Format(time.RFC3339),
		}
		if !n.SentAt.IsZero() {
			response.SentAt = n.SentAt.Format(time.RFC3339)
		}
		responses[i] = response
	}
	return responses, nil
}
