package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaymentProcessing OrderStatus = "payment_processing"
	OrderStatusPaymentFailed     OrderStatus = "payment_failed"
	OrderStatusInventoryReserved OrderStatus = "inventory_reserved"
	OrderStatusInventoryRejected OrderStatus = "inventory_rejected"
	OrderStatusFulfilled         OrderStatus = "fulfilled"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

// statusRank orders the lifecycle. Events never move an order back.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:           0,
	OrderStatusPaymentProcessing: 1,
	OrderStatusPaymentFailed:     2,
	OrderStatusInventoryReserved: 2,
	OrderStatusInventoryRejected: 2,
	OrderStatusFulfilled:         3,
	OrderStatusCancelled:         3,
}

func NewOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(value)
	if _, ok := statusRank[status]; !ok {
		return "", errors.Errorf("unknown order status %q", value)
	}
	return status, nil
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusCancelled
}

var (
	ErrEmptyOrder     = errors.New("order must have at least one item")
	ErrInvalidItem    = errors.New("invalid order item")
	ErrOrderFulfilled = errors.New("order already fulfilled")
	ErrOrderConflict  = errors.New("order was modified concurrently")
)

// Order aggregate root
type Order struct {
	ID                 models.ID
	CustomerID         models.ID
	Items              []events.LineItem
	TotalAmount        models.Money
	Status             OrderStatus
	CancellationReason string
	TrackingNumber     string
	CancelledAt        time.Time
	Timestamps         models.Timestamps
	Version            models.Version
}

// NewOrder creates a pending order and derives its total from the lines
func NewOrder(customerID models.ID, items []events.LineItem) (*Order, error) {
	if customerID.IsZero() {
		return nil, errors.New("customer ID is required")
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	total := models.NewMoney(0, items[0].UnitPrice.Currency)
	for i, item := range items {
		if item.ProductID.IsZero() || item.Quantity <= 0 || item.UnitPrice.Amount < 0 {
			return nil, errors.Wrapf(ErrInvalidItem, "line %d", i)
		}

		var err error
		total, err = total.Add(item.UnitPrice.Multiply(item.Quantity))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidItem, "line %d: %v", i, err)
		}
	}

	return &Order{
		ID:          models.GenerateUUID(),
		CustomerID:  customerID,
		Items:       items,
		TotalAmount: total,
		Status:      OrderStatusPending,
		Timestamps:  models.NewTimestamps(),
		Version:     models.NewVersion(),
	}, nil
}

// Created is the order.created event of this order
func (o *Order) Created() events.OrderCreated {
	return events.OrderCreated{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Items:       o.Items,
		TotalAmount: o.TotalAmount,
		Timestamp:   o.Timestamps.CreatedAt,
	}
}

// advance moves the order forward. It reports false when the order is
// already at or past the target stage.
func (o *Order) advance(to OrderStatus) bool {
	if !o.canAdvance(to) {
		return false
	}

	o.Status = to
	o.touch()
	return true
}

func (o *Order) canAdvance(to OrderStatus) bool {
	return !o.Status.IsTerminal() && statusRank[to] > statusRank[o.Status]
}

func (o *Order) touch() {
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
}

func (o *Order) MarkPaymentProcessing() bool {
	return o.advance(OrderStatusPaymentProcessing)
}

func (o *Order) MarkInventoryReserved() bool {
	return o.advance(OrderStatusInventoryReserved)
}

// RecordPaymentFailure cancels the order after a failed payment
func (o *Order) RecordPaymentFailure(reason string) bool {
	return o.compensate(OrderStatusPaymentFailed, reason)
}

// RecordInventoryRejection cancels the order after inventory was refused
func (o *Order) RecordInventoryRejection(reason string) bool {
	return o.compensate(OrderStatusInventoryRejected, reason)
}

// compensate passes through the failed stage straight to cancelled, as one
// change of the stored order
func (o *Order) compensate(failed OrderStatus, reason string) bool {
	if !o.canAdvance(failed) {
		return false
	}

	o.Status = failed
	return o.Cancel(reason) == nil
}

// Fulfill records shipment. A cancelled order stays cancelled.
func (o *Order) Fulfill(trackingNumber string) bool {
	if !o.advance(OrderStatusFulfilled) {
		return false
	}
	o.TrackingNumber = trackingNumber
	return true
}

// Cancel moves the order to cancelled. Cancelling a cancelled order is a
// no-op; a fulfilled order cannot be cancelled.
func (o *Order) Cancel(reason string) error {
	switch o.Status {
	case OrderStatusCancelled:
		return nil
	case OrderStatusFulfilled:
		return errors.Wrapf(ErrOrderFulfilled, "order %s", o.ID)
	}

	if reason == "" {
		reason = "cancelled"
	}

	o.Status = OrderStatusCancelled
	o.CancellationReason = reason
	o.touch()
	o.CancelledAt = o.Timestamps.UpdatedAt
	return nil
}

// Cancellation rebuilds the order.cancelled event of a cancelled order
func (o *Order) Cancellation() (events.OrderCancelled, bool) {
	if o.Status != OrderStatusCancelled {
		return events.OrderCancelled{}, false
	}
	return events.OrderCancelled{
		OrderID:   o.ID,
		Reason:    o.CancellationReason,
		Timestamp: o.CancelledAt,
	}, true
}

type ListOrdersFilter struct {
	CustomerID models.ID
	Status     OrderStatus
	Limit      int
}

// OrderRepository interface. FindByID returns nil without error for an
// unknown order.
type OrderRepository interface {
	// Save inserts a new order or updates a stored one whose version is one
	// behind; otherwise it fails with ErrOrderConflict.
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	// List returns orders newest first
	List(ctx context.Context, filter ListOrdersFilter) ([]*Order, error)
}
