package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

var (
	ErrPaymentFinalized = errors.New("payment already has a final status")
	ErrPaymentConflict  = errors.New("payment was modified concurrently")
	ErrInvalidAmount    = errors.New("amount must be positive")
)

// Payment aggregate root. A payment moves out of processing exactly once.
type Payment struct {
	ID                    models.ID
	OrderID               models.ID
	CustomerID            models.ID
	Amount                models.Money
	Method                PaymentMethodType
	Status                PaymentStatus
	ProviderTransactionID string
	FailureReason         string
	// Items are kept to replay payment.succeeded unchanged
	Items      []events.LineItem
	DecidedAt  time.Time
	Timestamps models.Timestamps
	Version    models.Version
}

// NewPayment creates a payment in processing status
func NewPayment(orderID, customerID models.ID, amount models.Money, method PaymentMethodType, items []events.LineItem) (*Payment, error) {
	if orderID.IsZero() {
		return nil, errors.New("order ID is required")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &Payment{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		CustomerID: customerID,
		Amount:     amount,
		Method:     method,
		Status:     PaymentStatusProcessing,
		Items:      items,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}, nil
}

// NewRejectedPayment records a payment that was decided as failed without
// contacting the provider
func NewRejectedPayment(orderID, customerID models.ID, amount models.Money, method PaymentMethodType, reason string) *Payment {
	if reason == "" {
		reason = "payment failed"
	}

	payment := &Payment{
		ID:            models.GenerateUUID(),
		OrderID:       orderID,
		CustomerID:    customerID,
		Amount:        amount,
		Method:        method,
		Status:        PaymentStatusFailed,
		FailureReason: reason,
		Timestamps:    models.NewTimestamps(),
		Version:       models.NewVersion(),
	}
	payment.decide()
	return payment
}

// IdempotencyKey identifies the charge at the provider. There is one
// payment per order, so retries and redeliveries share the key.
func (p *Payment) IdempotencyKey() string {
	return "order-" + p.OrderID.String()
}

func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSucceeded || p.Status == PaymentStatusFailed
}

// Succeed marks payment as succeeded
func (p *Payment) Succeed(transactionID string) error {
	if p.IsTerminal() {
		return errors.Wrapf(ErrPaymentFinalized, "payment %s is %s", p.ID, p.Status)
	}
	if transactionID == "" {
		return errors.New("transaction ID is required")
	}

	p.Status = PaymentStatusSucceeded
	p.ProviderTransactionID = transactionID
	p.decide()
	return nil
}

// Fail marks payment as failed
func (p *Payment) Fail(reason string) error {
	if p.IsTerminal() {
		return errors.Wrapf(ErrPaymentFinalized, "payment %s is %s", p.ID, p.Status)
	}
	if reason == "" {
		reason = "payment failed"
	}

	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.decide()
	return nil
}

func (p *Payment) decide() {
	p.Timestamps = p.Timestamps.Update()
	p.DecidedAt = p.Timestamps.UpdatedAt
	p.Version = p.Version.Update()
}

// Outcome rebuilds the event published when the payment was decided
func (p *Payment) Outcome() (events.Event, bool) {
	switch p.Status {
	case PaymentStatusSucceeded:
		return events.PaymentSucceeded{
			OrderID:       p.OrderID,
			PaymentID:     p.ID,
			CustomerID:    p.CustomerID,
			Amount:        p.Amount,
			PaymentMethod: p.Method.String(),
			TransactionID: p.ProviderTransactionID,
			Items:         p.Items,
			Timestamp:     p.DecidedAt,
		}, true
	case PaymentStatusFailed:
		return events.PaymentFailed{
			OrderID:   p.OrderID,
			PaymentID: p.ID,
			Reason:    p.FailureReason,
			Timestamp: p.DecidedAt,
		}, true
	default:
		return nil, false
	}
}

// PaymentRepository interface. FindByOrderID returns nil without error when
// the order has no payment.
type PaymentRepository interface {
	// Save inserts a new payment or updates a stored one whose version is
	// one behind; otherwise it fails with ErrPaymentConflict.
	Save(ctx context.Context, payment *Payment) error
	FindByOrderID(ctx context.Context, orderID models.ID) (*Payment, error)
}
