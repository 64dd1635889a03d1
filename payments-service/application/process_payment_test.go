package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/payments-service/infrastructure"
	"github.com/draftea/order-saga/payments-service/mocks"
	"github.com/draftea/order-saga/shared/events"
	sharedmocks "github.com/draftea/order-saga/shared/mocks"
	"github.com/draftea/order-saga/shared/models"
)

type paymentFixture struct {
	payments  *infrastructure.MemoryPaymentRepository
	provider  *mocks.MockProvider
	publisher *sharedmocks.MockPublisher
	process   *ProcessPayment
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	f := &paymentFixture{
		payments:  infrastructure.NewMemoryPaymentRepository(),
		provider:  mocks.NewMockProvider(t),
		publisher: sharedmocks.NewMockPublisher(t),
	}
	f.process = NewProcessPayment(f.payments, newExecutor(f.provider, 1), f.publisher, domain.PaymentMethodTypeCreditCard, zap.NewNop())
	return f
}

func (f *paymentFixture) capture(published *[]events.Event, times int) {
	f.publisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Run(func(_ context.Context, evts ...events.Event) {
			*published = append(*published, evts...)
		}).
		Return(nil).Times(times)
}

func processCommand(orderID models.ID, cents int64) *ProcessPaymentCommand {
	return &ProcessPaymentCommand{
		OrderID:    orderID,
		CustomerID: "customer-1",
		Items: []events.LineItem{
			{ProductID: "product-1", Quantity: 1, UnitPrice: models.NewMoney(cents, "USD")},
		},
		TotalAmount: models.NewMoney(cents, "USD"),
	}
}

func TestProcessPayment_Execute(t *testing.T) {
	t.Run("approved charge publishes payment.succeeded", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.provider.EXPECT().Charge(mock.Anything, mock.MatchedBy(func(req domain.ChargeRequest) bool {
			return req.IdempotencyKey == "order-order-1" && req.Amount.Amount == 2500
		})).Return(&domain.ChargeResult{Approved: true, TransactionID: "TXN-1"}, nil).Once()

		var published []events.Event
		f.capture(&published, 1)

		require.NoError(t, f.process.Execute(context.Background(), processCommand("order-1", 2500)))

		require.Len(t, published, 1)
		succeeded, ok := published[0].(events.PaymentSucceeded)
		require.True(t, ok)
		assert.Equal(t, "TXN-1", succeeded.TransactionID)
		assert.Equal(t, "credit_card", succeeded.PaymentMethod)
		assert.Len(t, succeeded.Items, 1)

		payment, err := f.payments.FindByOrderID(context.Background(), "order-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusSucceeded, payment.Status)
	})

	t.Run("decline publishes payment.failed with the provider reason", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.provider.EXPECT().Charge(mock.Anything, mock.Anything).
			Return(&domain.ChargeResult{DeclineReason: "Insufficient funds"}, nil).Once()

		var published []events.Event
		f.capture(&published, 1)

		require.NoError(t, f.process.Execute(context.Background(), processCommand("order-1", 2500)))

		require.Len(t, published, 1)
		failed, ok := published[0].(events.PaymentFailed)
		require.True(t, ok)
		assert.Equal(t, "Insufficient funds", failed.Reason)
	})

	t.Run("redelivery replays the identical outcome without charging again", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.provider.EXPECT().Charge(mock.Anything, mock.Anything).
			Return(&domain.ChargeResult{Approved: true, TransactionID: "TXN-1"}, nil).Once()

		var published []events.Event
		f.capture(&published, 2)

		cmd := processCommand("order-1", 2500)
		require.NoError(t, f.process.Execute(context.Background(), cmd))
		require.NoError(t, f.process.Execute(context.Background(), cmd))

		require.Len(t, published, 2)
		first, err := events.Marshal(published[0])
		require.NoError(t, err)
		second, err := events.Marshal(published[1])
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Payload, second.Payload)
	})

	t.Run("processing payment is reconciled instead of charged twice", func(t *testing.T) {
		f := newPaymentFixture(t)
		cmd := processCommand("order-1", 2500)

		pending, err := domain.NewPayment(cmd.OrderID, cmd.CustomerID, cmd.TotalAmount, domain.PaymentMethodTypeCreditCard, cmd.Items)
		require.NoError(t, err)
		require.NoError(t, f.payments.Save(context.Background(), pending))

		f.provider.EXPECT().Lookup(mock.Anything, "order-order-1").
			Return(&domain.ChargeResult{Approved: true, TransactionID: "TXN-9"}, nil).Once()

		var published []events.Event
		f.capture(&published, 1)

		require.NoError(t, f.process.Execute(context.Background(), cmd))

		f.provider.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
		require.Len(t, published, 1)
		assert.Equal(t, "TXN-9", published[0].(events.PaymentSucceeded).TransactionID)
	})

	t.Run("processing payment unknown to the provider is charged with the same key", func(t *testing.T) {
		f := newPaymentFixture(t)
		cmd := processCommand("order-1", 2500)

		pending, err := domain.NewPayment(cmd.OrderID, cmd.CustomerID, cmd.TotalAmount, domain.PaymentMethodTypeCreditCard, cmd.Items)
		require.NoError(t, err)
		require.NoError(t, f.payments.Save(context.Background(), pending))

		f.provider.EXPECT().Lookup(mock.Anything, "order-order-1").Return(nil, domain.ErrChargeNotFound).Once()
		f.provider.EXPECT().Charge(mock.Anything, mock.MatchedBy(func(req domain.ChargeRequest) bool {
			return req.IdempotencyKey == "order-order-1"
		})).Return(&domain.ChargeResult{Approved: true, TransactionID: "TXN-1"}, nil).Once()

		var published []events.Event
		f.capture(&published, 1)

		require.NoError(t, f.process.Execute(context.Background(), cmd))

		payment, err := f.payments.FindByOrderID(context.Background(), "order-1")
		require.NoError(t, err)
		assert.Equal(t, pending.ID, payment.ID)
		assert.Equal(t, domain.PaymentStatusSucceeded, payment.Status)
	})

	t.Run("failed lookup is left for redelivery", func(t *testing.T) {
		f := newPaymentFixture(t)
		cmd := processCommand("order-1", 2500)

		pending, err := domain.NewPayment(cmd.OrderID, cmd.CustomerID, cmd.TotalAmount, domain.PaymentMethodTypeCreditCard, cmd.Items)
		require.NoError(t, err)
		require.NoError(t, f.payments.Save(context.Background(), pending))

		f.provider.EXPECT().Lookup(mock.Anything, mock.Anything).Return(nil, errTimeout).Once()

		err = f.process.Execute(context.Background(), cmd)
		assert.ErrorIs(t, err, errTimeout)
	})

	t.Run("zero amount fails without contacting the provider", func(t *testing.T) {
		f := newPaymentFixture(t)

		var published []events.Event
		f.capture(&published, 1)

		require.NoError(t, f.process.Execute(context.Background(), processCommand("order-1", 0)))

		require.Len(t, published, 1)
		assert.Equal(t, domain.ErrInvalidAmount.Error(), published[0].(events.PaymentFailed).Reason)
	})

	t.Run("publish failure is returned and replayed on redelivery", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.provider.EXPECT().Charge(mock.Anything, mock.Anything).
			Return(&domain.ChargeResult{Approved: true, TransactionID: "TXN-1"}, nil).Once()
		f.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
		f.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

		cmd := processCommand("order-1", 2500)
		assert.Error(t, f.process.Execute(context.Background(), cmd))
		assert.NoError(t, f.process.Execute(context.Background(), cmd))
	})
}

func TestGetPayment_Execute(t *testing.T) {
	repo := mocks.NewMockPaymentRepository(t)
	uc := NewGetPayment(repo)

	payment, err := domain.NewPayment("order-1", "customer-1", models.NewMoney(100, "USD"), domain.PaymentMethodTypeDebit, nil)
	require.NoError(t, err)

	repo.EXPECT().FindByOrderID(mock.Anything, models.ID("order-1")).Return(payment, nil).Once()
	repo.EXPECT().FindByOrderID(mock.Anything, models.ID("order-2")).Return(nil, nil).Once()

	response, err := uc.Execute(context.Background(), &GetPaymentQuery{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, "processing", response.Status)
	assert.Equal(t, "debit", response.PaymentMethod)

	_, err = uc.Execute(context.Background(), &GetPaymentQuery{OrderID: "order-2"})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
