package domain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/shared/models"
)

// ErrShipmentRejected is a carrier refusal. Any other Ship error is treated
// as transient.
var ErrShipmentRejected = errors.New("shipment rejected")

type ShipmentRequest struct {
	// Reference is stable per order so a repeated request returns the
	// shipment created first
	Reference     string
	OrderID       models.ID
	ReservationID models.ID
}

// Shipper books the shipment of an order with a carrier and returns its
// tracking number
type Shipper interface {
	Ship(ctx context.Context, req ShipmentRequest) (string, error)
}
