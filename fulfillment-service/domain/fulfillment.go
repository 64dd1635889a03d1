package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

type FulfillmentStatus string

const (
	FulfillmentStatusProcessing FulfillmentStatus = "processing"
	FulfillmentStatusShipped    FulfillmentStatus = "shipped"
	FulfillmentStatusFailed     FulfillmentStatus = "failed"
)

var (
	ErrFulfillmentFinalized = errors.New("fulfillment already has a final status")
	ErrFulfillmentConflict  = errors.New("fulfillment was modified concurrently")
)

// Fulfillment is the shipping record of one reserved order. It is written
// in processing status before the carrier is called and decided once.
type Fulfillment struct {
	ID             models.ID
	OrderID        models.ID
	ReservationID  models.ID
	Status         FulfillmentStatus
	TrackingNumber string
	FailureReason  string
	DecidedAt      time.Time
	Timestamps     models.Timestamps
	Version        models.Version
}

func NewFulfillment(orderID, reservationID models.ID) (*Fulfillment, error) {
	if orderID.IsZero() {
		return nil, errors.New("order ID is required")
	}

	return &Fulfillment{
		ID:            models.GenerateUUID(),
		OrderID:       orderID,
		ReservationID: reservationID,
		Status:        FulfillmentStatusProcessing,
		Timestamps:    models.NewTimestamps(),
		Version:       models.NewVersion(),
	}, nil
}

func (f *Fulfillment) IsTerminal() bool {
	return f.Status == FulfillmentStatusShipped || f.Status == FulfillmentStatusFailed
}

// Ship records the carrier's tracking number
func (f *Fulfillment) Ship(trackingNumber string) error {
	if f.IsTerminal() {
		return errors.Wrapf(ErrFulfillmentFinalized, "fulfillment %s is %s", f.ID, f.Status)
	}
	if trackingNumber == "" {
		return errors.New("tracking number is required")
	}

	f.Status = FulfillmentStatusShipped
	f.TrackingNumber = trackingNumber
	f.decide()
	return nil
}

func (f *Fulfillment) Fail(reason string) error {
	if f.IsTerminal() {
		return errors.Wrapf(ErrFulfillmentFinalized, "fulfillment %s is %s", f.ID, f.Status)
	}
	if reason == "" {
		reason = "fulfillment failed"
	}

	f.Status = FulfillmentStatusFailed
	f.FailureReason = reason
	f.decide()
	return nil
}

func (f *Fulfillment) decide() {
	f.Timestamps = f.Timestamps.Update()
	f.DecidedAt = f.Timestamps.UpdatedAt
	f.Version = f.Version.Update()
}

// Outcome rebuilds the event the fulfillment was decided with. A failed
// shipment cancels the order.
func (f *Fulfillment) Outcome() (events.Event, bool) {
	switch f.Status {
	case FulfillmentStatusShipped:
		return events.OrderFulfilled{
			OrderID:        f.OrderID,
			FulfillmentID:  f.ID,
			TrackingNumber: f.TrackingNumber,
			Timestamp:      f.DecidedAt,
		}, true
	case FulfillmentStatusFailed:
		return events.OrderCancelled{
			OrderID:   f.OrderID,
			Reason:    f.FailureReason,
			Timestamp: f.DecidedAt,
		}, true
	default:
		return nil, false
	}
}

// FulfillmentRepository stores one fulfillment per order. FindByOrderID
// returns nil without error when the order has none.
type FulfillmentRepository interface {
	// Save inserts a new fulfillment or updates a stored one whose version
	// is one behind; otherwise it fails with ErrFulfillmentConflict.
	Save(ctx context.Context, fulfillment *Fulfillment) error
	FindByOrderID(ctx context.Context, orderID models.ID) (*Fulfillment, error)
}
