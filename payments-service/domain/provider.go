package domain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/shared/models"
)

// ErrChargeNotFound means the provider never accepted a charge for the key
var ErrChargeNotFound = errors.New("charge not found")

type ChargeRequest struct {
	IdempotencyKey string
	OrderID        models.ID
	CustomerID     models.ID
	Amount         models.Money
}

// ChargeResult is a definitive provider answer. A decline is a result, not
// an error.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	DeclineReason string
}

// Provider is the external payment provider. Charge is idempotent per
// IdempotencyKey. Errors are infrastructure failures and may be retried.
type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Lookup(ctx context.Context, idempotencyKey string) (*ChargeResult, error)
}
