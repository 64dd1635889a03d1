package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/fulfillment-service/domain"
	"github.com/draftea/order-saga/fulfillment-service/infrastructure"
	"github.com/draftea/order-saga/fulfillment-service/mocks"
	"github.com/draftea/order-saga/shared/events"
	sharedmocks "github.com/draftea/order-saga/shared/mocks"
	"github.com/draftea/order-saga/shared/resilience"
)

type fulfillFixture struct {
	repo      *infrastructure.MemoryFulfillmentRepository
	shipper   *mocks.MockShipper
	publisher *sharedmocks.MockPublisher
	uc        *FulfillOrder
}

func newFulfillFixture(t *testing.T) *fulfillFixture {
	f := &fulfillFixture{
		repo:      infrastructure.NewMemoryFulfillmentRepository(),
		shipper:   mocks.NewMockShipper(t),
		publisher: sharedmocks.NewMockPublisher(t),
	}
	f.uc = NewFulfillOrder(f.repo, f.shipper, f.publisher, FulfillOrderConfig{
		Retry: resilience.RetryConfig{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	}, zap.NewNop())
	return f
}

func (f *fulfillFixture) capture(published *[]events.Event, times int) {
	f.publisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Run(func(_ context.Context, evts ...events.Event) {
			*published = append(*published, evts...)
		}).
		Return(nil).Times(times)
}

var fulfillCmd = &FulfillOrderCommand{OrderID: "order-1", ReservationID: "reservation-1"}

func TestFulfillOrder_Execute(t *testing.T) {
	t.Run("ships and replays the same order.fulfilled", func(t *testing.T) {
		f := newFulfillFixture(t)
		f.shipper.EXPECT().Ship(mock.Anything, domain.ShipmentRequest{
			Reference:     "order-order-1",
			OrderID:       "order-1",
			ReservationID: "reservation-1",
		}).Return("TRK-1A2B3C4D", nil).Once()

		var published []events.Event
		f.capture(&published, 2)

		require.NoError(t, f.uc.Execute(context.Background(), fulfillCmd))
		require.NoError(t, f.uc.Execute(context.Background(), fulfillCmd))

		require.Len(t, published, 2)
		fulfilled, ok := published[0].(events.OrderFulfilled)
		require.True(t, ok)
		assert.Equal(t, "TRK-1A2B3C4D", fulfilled.TrackingNumber)
		assert.Equal(t, published[0], published[1])
	})

	t.Run("rejected shipment cancels the order", func(t *testing.T) {
		f := newFulfillFixture(t)
		f.shipper.EXPECT().Ship(mock.Anything, mock.Anything).
			Return("", errors.Wrap(domain.ErrShipmentRejected, "address undeliverable")).Once()

		var published []events.Event
		f.capture(&published, 1)

		require.NoError(t, f.uc.Execute(context.Background(), fulfillCmd))

		require.Len(t, published, 1)
		cancelled, ok := published[0].(events.OrderCancelled)
		require.True(t, ok)
		assert.Contains(t, cancelled.Reason, "address undeliverable")

		stored, err := f.repo.FindByOrderID(context.Background(), "order-1")
		require.NoError(t, err)
		assert.Equal(t, domain.FulfillmentStatusFailed, stored.Status)
	})

	t.Run("unreachable carrier is retried then redelivered", func(t *testing.T) {
		f := newFulfillFixture(t)
		f.shipper.EXPECT().Ship(mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Times(2)

		err := f.uc.Execute(context.Background(), fulfillCmd)
		require.Error(t, err)

		stored, err := f.repo.FindByOrderID(context.Background(), "order-1")
		require.NoError(t, err)
		assert.Equal(t, domain.FulfillmentStatusProcessing, stored.Status)

		f.shipper.EXPECT().Ship(mock.Anything, mock.Anything).Return("TRK-99999999", nil).Once()
		var published []events.Event
		f.capture(&published, 1)

		require.NoError(t, f.uc.Execute(context.Background(), fulfillCmd))
		require.Len(t, published, 1)
		assert.Equal(t, stored.ID, published[0].(events.OrderFulfilled).FulfillmentID)
	})

	t.Run("publish failure is replayed on redelivery", func(t *testing.T) {
		f := newFulfillFixture(t)
		f.shipper.EXPECT().Ship(mock.Anything, mock.Anything).Return("TRK-ABCDEF01", nil).Once()
		f.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		require.Error(t, f.uc.Execute(context.Background(), fulfillCmd))

		var published []events.Event
		f.capture(&published, 1)
		require.NoError(t, f.uc.Execute(context.Background(), fulfillCmd))
		assert.Equal(t, "TRK-ABCDEF01", published[0].(events.OrderFulfilled).TrackingNumber)
	})
}

func TestGetFulfillment_Execute(t *testing.T) {
	repo := infrastructure.NewMemoryFulfillmentRepository()
	uc := NewGetFulfillment(repo)

	_, err := uc.Execute(context.Background(), &GetFulfillmentQuery{OrderID: "order-1"})
	assert.ErrorIs(t, err, ErrFulfillmentNotFound)

	fulfillment, err := domain.NewFulfillment("order-1", "reservation-1")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), fulfillment))

	response, err := uc.Execute(context.Background(), &GetFulfillmentQuery{OrderID: "order-1"})
	require.NoError(t, err)
	assert.Equal(t, "processing", response.Status)
	assert.Equal(t, "reservation-1", response.ReservationID)
}
