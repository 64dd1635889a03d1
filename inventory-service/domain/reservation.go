package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "reserved"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// CancelledBeforeReservation is the rejection reason given to a payment that
// arrives after its order was cancelled.
const CancelledBeforeReservation = "order cancelled before reservation"

var (
	ErrReservationNotActive = errors.New("reservation is not active")
	ErrReservationExists    = errors.New("order already has a reservation")
	ErrReservationConflict  = errors.New("reservation was modified concurrently")
)

// Reservation records what the inventory stage decided for one order. It is
// the stage's idempotency record: a redelivered event replays the decision.
type Reservation struct {
	ID         models.ID
	OrderID    models.ID
	Items      []events.ReservedItem
	Status     ReservationStatus
	Reason     string
	DecidedAt  time.Time
	Timestamps models.Timestamps
	Version    models.Version
}

func NewReservation(orderID models.ID, items []events.ReservedItem) *Reservation {
	return newReservation(orderID, items, ReservationStatusReserved, "")
}

func NewRejectedReservation(orderID models.ID, reason string) *Reservation {
	return newReservation(orderID, nil, ReservationStatusRejected, reason)
}

// NewCancelledReservation is a tombstone for an order cancelled before any
// stock was reserved for it
func NewCancelledReservation(orderID models.ID) *Reservation {
	return newReservation(orderID, nil, ReservationStatusCancelled, CancelledBeforeReservation)
}

func newReservation(orderID models.ID, items []events.ReservedItem, status ReservationStatus, reason string) *Reservation {
	timestamps := models.NewTimestamps()

	return &Reservation{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		Items:      items,
		Status:     status,
		Reason:     reason,
		DecidedAt:  timestamps.CreatedAt,
		Timestamps: timestamps,
		Version:    models.NewVersion(),
	}
}

// Release marks a reserved reservation as given back to stock
func (r *Reservation) Release() error {
	if r.Status != ReservationStatusReserved {
		return errors.Wrapf(ErrReservationNotActive, "reservation %s is %s", r.ID, r.Status)
	}

	r.Status = ReservationStatusReleased
	r.Timestamps = r.Timestamps.Update()
	r.Version = r.Version.Update()
	return nil
}

// Outcome rebuilds the event the reservation was decided with. Released
// reservations have none: the order was already compensated.
func (r *Reservation) Outcome() (events.Event, bool) {
	switch r.Status {
	case ReservationStatusReserved:
		return events.InventoryReserved{
			OrderID:       r.OrderID,
			ReservationID: r.ID,
			Items:         r.Items,
			Timestamp:     r.DecidedAt,
		}, true
	case ReservationStatusRejected, ReservationStatusCancelled:
		return events.InventoryRejected{
			OrderID:   r.OrderID,
			Reason:    r.Reason,
			Timestamp: r.DecidedAt,
		}, true
	default:
		return nil, false
	}
}

// ReservationRepository stores one reservation per order. FindByOrderID
// returns nil without error when the order has none.
type ReservationRepository interface {
	FindByOrderID(ctx context.Context, orderID models.ID) (*Reservation, error)
	// Create stores the first decision for an order. It fails with
	// ErrReservationExists when the order already has one, so concurrent
	// reserve and cancel deliveries cannot overwrite each other.
	Create(ctx context.Context, reservation *Reservation) error
	// Update stores a reservation whose stored version is one behind,
	// otherwise it fails with ErrReservationConflict.
	Update(ctx context.Context, reservation *Reservation) error
}
