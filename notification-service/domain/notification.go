package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/shared/models"
)

// NotificationType is the domain event a notification was sent for
type NotificationType string

const (
	NotificationTypeOrderCreated      NotificationType = "order_created"
	NotificationTypePaymentSucceeded  NotificationType = "payment_succeeded"
	NotificationTypePaymentFailed     NotificationType = "payment_failed"
	NotificationTypeInventoryReserved NotificationType = "inventory_reserved"
	NotificationTypeInventoryRejected NotificationType = "inventory_rejected"
	NotificationTypeOrderFulfilled    NotificationType = "order_fulfilled"
	NotificationTypeOrderCancelled    NotificationType = "order_cancelled"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

var (
	ErrNotificationFinalized = errors.New("notification already has a final status")
	ErrNotificationConflict  = errors.New("notification was modified concurrently")
)

// Notification records one customer message per order and event type
type Notification struct {
	ID            models.ID
	OrderID       models.ID
	CustomerID    models.ID
	Type          NotificationType
	Recipient     string
	Subject       string
	Body          string
	Status        NotificationStatus
	FailureReason string
	SentAt        time.Time
	Timestamps    models.Timestamps
	Version       models.Version
}

func NewNotification(orderID, customerID models.ID, notificationType NotificationType, recipient, subject, body string) (*Notification, error) {
	if orderID.IsZero() {
		return nil, errors.New("order ID is required")
	}

	return &Notification{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		CustomerID: customerID,
		Type:       notificationType,
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		Status:     NotificationStatusPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

func (n *Notification) IsTerminal() bool {
	return n.Status == NotificationStatusSent || n.Status == NotificationStatusFailed
}

func (n *Notification) MarkSent() error {
	if n.IsTerminal() {
		return errors.Wrapf(ErrNotificationFinalized, "notification %s is %s", n.ID, n.Status)
	}

	n.Status = NotificationStatusSent
	n.touch()
	n.SentAt = n.Timestamps.UpdatedAt
	return nil
}

func (n *Notification) MarkFailed(reason string) error {
	if n.IsTerminal() {
		return errors.Wrapf(ErrNotificationFinalized, "notification %s is %s", n.ID, n.Status)
	}

	n.Status = NotificationStatusFailed
	n.FailureReason = reason
	n.touch()
	return nil
}

func (n *Notification) touch() {
	n.Timestamps = n.Timestamps.Update()
	n.Version = n.Version.Update()
}

// NotificationRepository stores at most one notification per order and
// type. Find returns nil without error when there is none.
type NotificationRepository interface {
	// Save inserts a new notification or updates a stored one whose version
	// is one behind; otherwise it fails with ErrNotificationConflict.
	Save(ctx context.Context, notification *Notification) error
	Find(ctx context.Context, orderID models.ID, notificationType NotificationType) (*Notification, error)
	// ListByOrderID returns the notifications of an order, oldest first
	ListByOrderID(ctx context.Context, orderID models.ID) ([]*Notification, error)
}
