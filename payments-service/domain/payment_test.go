package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

func TestNewPayment(t *testing.T) {
	tests := []struct {
		name    string
		orderID models.ID
		amount  models.Money
		wantErr error
	}{
		{name: "valid", orderID: "order-1", amount: models.NewMoney(100, "USD")},
		{name: "zero amount", orderID: "order-1", amount: models.NewMoney(0, "USD"), wantErr: ErrInvalidAmount},
		{name: "negative amount", orderID: "order-1", amount: models.NewMoney(-5, "USD"), wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment, err := NewPayment(tt.orderID, "customer-1", tt.amount, PaymentMethodTypeCreditCard, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PaymentStatusProcessing, payment.Status)
			assert.Equal(t, "order-order-1", payment.IdempotencyKey())
			_, ok := payment.Outcome()
			assert.False(t, ok)
		})
	}

	_, err := NewPayment("", "customer-1", models.NewMoney(100, "USD"), PaymentMethodTypeCreditCard, nil)
	assert.Error(t, err)
}

func TestPayment_SingleTerminalTransition(t *testing.T) {
	payment, err := NewPayment("order-1", "customer-1", models.NewMoney(100, "USD"), PaymentMethodTypeWallet, []events.LineItem{
		{ProductID: "product-1", Quantity: 1, UnitPrice: models.NewMoney(100, "USD")},
	})
	require.NoError(t, err)

	require.NoError(t, payment.Succeed("TXN-1"))
	assert.Equal(t, 2, payment.Version.Value)
	assert.False(t, payment.DecidedAt.IsZero())

	assert.ErrorIs(t, payment.Fail("late failure"), ErrPaymentFinalized)
	assert.ErrorIs(t, payment.Succeed("TXN-2"), ErrPaymentFinalized)
	assert.Equal(t, "TXN-1", payment.ProviderTransactionID)

	event, ok := payment.Outcome()
	require.True(t, ok)
	succeeded := event.(events.PaymentSucceeded)
	assert.Equal(t, "wallet", succeeded.PaymentMethod)
	assert.Equal(t, payment.DecidedAt, succeeded.Timestamp)
}

func TestNewRejectedPayment(t *testing.T) {
	payment := NewRejectedPayment("order-1", "customer-1", models.NewMoney(0, "USD"), PaymentMethodTypeDebit, "amount must be positive")

	assert.True(t, payment.IsTerminal())
	event, ok := payment.Outcome()
	require.True(t, ok)
	assert.Equal(t, events.PaymentFailed{
		OrderID:   "order-1",
		PaymentID: payment.ID,
		Reason:    "amount must be positive",
		Timestamp: payment.DecidedAt,
	}, event)

	assert.False(t, payment.DecidedAt.IsZero())
	assert.ErrorIs(t, payment.Fail("again"), ErrPaymentFinalized)

	unexplained := NewRejectedPayment("order-2", "customer-1", models.NewMoney(0, "USD"), PaymentMethodTypeDebit, "")
	assert.Equal(t, PaymentStatusFailed, unexplained.Status)
	assert.Equal(t, "payment failed", unexplained.FailureReason)
}

func TestNewPaymentMethodType(t *testing.T) {
	method, err := NewPaymentMethodType("debit")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodTypeDebit, method)

	_, err = NewPaymentMethodType("cheque")
	assert.ErrorIs(t, err, ErrUnknownPaymentMethod)
}
