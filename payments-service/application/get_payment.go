package application

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

// GetPaymentQuery represents the query to get the payment of an order
type GetPaymentQuery struct {
	OrderID string
}

// GetPaymentResponse represents the response for getting a payment
type GetPaymentResponse struct {
	PaymentID     string            `json:"paymentId"`
	OrderID       string            `json:"orderId"`
	CustomerID    string            `json:"customerId"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"paymentMethod"`
	Status        string            `json:"status"`
	TransactionID string            `json:"transactionId,omitempty"`
	FailureReason string            `json:"failureReason,omitempty"`
	Items         []events.LineItem `json:"items"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
}

// GetPayment use case
type GetPayment struct {
	paymentRepository domain.PaymentRepository
}

// NewGetPayment creates a new GetPayment use case
func NewGetPayment(paymentRepository domain.PaymentRepository) *GetPayment {
	return &GetPayment{
		paymentRepository: paymentRepository,
	}
}

// Execute executes the get payment use case
func (uc *GetPayment) Execute(ctx context.Context, query *GetPaymentQuery) (*GetPaymentResponse, error) {
	if query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	payment, err := uc.paymentRepository.FindByOrderID(ctx, models.ID(query.OrderID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find payment")
	}

	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	return &GetPaymentResponse{
		PaymentID:     payment.ID.String(),
		OrderID:       payment.OrderID.String(),
		CustomerID:    payment.CustomerID.String(),
		Amount:        payment.Amount.Amount,
		Currency:      payment.Amount.Currency,
		PaymentMethod: payment.Method.String(),
		Status:        string(payment.Status),
		TransactionID: payment.ProviderTransactionID,
		FailureReason: payment.FailureReason,
		Items:         payment.Items,
		CreatedAt:     payment.Timestamps.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     payment.Timestamps.UpdatedAt.Format(time.RFC3339),
	}, nil
}
