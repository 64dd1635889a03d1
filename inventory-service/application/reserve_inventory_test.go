package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/inventory-service/infrastructure"
	"github.com/draftea/order-saga/inventory-service/mocks"
	"github.com/draftea/order-saga/shared/events"
	sharedmocks "github.com/draftea/order-saga/shared/mocks"
	"github.com/draftea/order-saga/shared/models"
)

type inventoryFixture struct {
	items        *infrastructure.MemoryInventoryRepository
	reservations *infrastructure.MemoryReservationRepository
	publisher    *sharedmocks.MockPublisher
	engine       *ReservationEngine
	reserve      *ReserveInventory
	release      *ReleaseInventory
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	f := &inventoryFixture{
		items:        infrastructure.NewMemoryInventoryRepository(),
		reservations: infrastructure.NewMemoryReservationRepository(),
		publisher:    sharedmocks.NewMockPublisher(t),
	}
	f.engine = NewReservationEngine(f.items, EngineConfig{AutoProvision: false}, zap.NewNop())
	f.reserve = NewReserveInventory(f.engine, f.reservations, f.publisher, zap.NewNop())
	f.release = NewReleaseInventory(f.engine, f.reservations, zap.NewNop())
	return f
}

func (f *inventoryFixture) stock(t *testing.T, productID models.ID) (int, int) {
	t.Helper()
	item, err := f.items.FindByProductID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.AvailableQuantity, item.ReservedQuantity
}

func line(productID models.ID, quantity int) events.LineItem {
	return events.LineItem{ProductID: productID, Quantity: quantity, UnitPrice: models.NewMoney(100, "USD")}
}

func TestReserveInventory_Execute(t *testing.T) {
	t.Run("reserves merged lines and publishes inventory.reserved", func(t *testing.T) {
		f := newInventoryFixture(t)
		seedItem(t, f.items, "product-a", 5)
		seedItem(t, f.items, "product-b", 5)

		var published events.InventoryReserved
		f.publisher.EXPECT().Publish(mock.Anything, mock.AnythingOfType("events.InventoryReserved")).
			Run(func(_ context.Context, evts ...events.Event) {
				published = evts[0].(events.InventoryReserved)
			}).
			Return(nil).Once()

		err := f.reserve.Execute(context.Background(), &ReserveInventoryCommand{
			OrderID: "order-1",
			Items:   []events.LineItem{line("product-b", 1), line("product-a", 2), line("product-b", 1)},
		})
		require.NoError(t, err)

		assert.Equal(t, models.ID("order-1"), published.OrderID)
		assert.Equal(t, []events.ReservedItem{
			{ProductID: "product-a", Quantity: 2},
			{ProductID: "product-b", Quantity: 2},
		}, published.Items)

		available, reserved := f.stock(t, "product-b")
		assert.Equal(t, 3, available)
		assert.Equal(t, 2, reserved)
	})

	t.Run("insufficient stock compensates and publishes inventory.rejected", func(t *testing.T) {
		f := newInventoryFixture(t)
		seedItem(t, f.items, "product-a", 5)
		seedItem(t, f.items, "product-b", 5)

		var published events.InventoryRejected
		f.publisher.EXPECT().Publish(mock.Anything, mock.AnythingOfType("events.InventoryRejected")).
			Run(func(_ context.Context, evts ...events.Event) {
				published = evts[0].(events.InventoryRejected)
			}).
			Return(nil).Once()

		err := f.reserve.Execute(context.Background(), &ReserveInventoryCommand{
			OrderID: "order-1",
			Items:   []events.LineItem{line("product-a", 3), line("product-b", 10)},
		})
		require.NoError(t, err)

		assert.Equal(t, "Insufficient inventory for product product-b. Available: 5, Requested: 10", published.Reason)

		available, reserved := f.stock(t, "product-a")
		assert.Equal(t, 5, available, "the reserved line must be released")
		assert.Equal(t, 0, reserved)

		reservation, err := f.reservations.FindByOrderID(context.Background(), "order-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusRejected, reservation.Status)
	})

	t.Run("redelivery replays the identical event", func(t *testing.T) {
		f := newInventoryFixture(t)
		seedItem(t, f.items, "product-a", 5)

		var published []events.Event
		f.publisher.EXPECT().Publish(mock.Anything, mock.Anything).
			Run(func(_ context.Context, evts ...events.Event) {
				published = append(published, evts...)
			}).
			Return(nil).Times(2)

		cmd := &ReserveInventoryCommand{OrderID: "order-1", Items: []events.LineItem{line("product-a", 3)}}
		require.NoError(t, f.reserve.Execute(context.Background(), cmd))
		require.NoError(t, f.reserve.Execute(context.Background(), cmd))

		require.Len(t, published, 2)
		assert.Equal(t, published[0], published[1])

		first, err := events.Marshal(published[0])
		require.NoError(t, err)
		second, err := events.Marshal(published[1])
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		available, reserved := f.stock(t, "product-a")
		assert.Equal(t, 2, available, "stock is reserved once")
		assert.Equal(t, 3, reserved)
	})

	t.Run("publish failure is transient and the retry replays", func(t *testing.T) {
		f := newInventoryFixture(t)
		seedItem(t, f.items, "product-a", 5)

		f.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
		f.publisher.EXPECT().Publish(mock.Anything, mock.AnythingOfType("events.InventoryReserved")).Return(nil).Once()

		cmd := &ReserveInventoryCommand{OrderID: "order-1", Items: []events.LineItem{line("product-a", 3)}}
		require.Error(t, f.reserve.Execute(context.Background(), cmd))
		require.NoError(t, f.reserve.Execute(context.Background(), cmd))

		available, _ := f.stock(t, "product-a")
		assert.Equal(t, 2, available)
	})

	t.Run("order cancelled before reservation is rejected", func(t *testing.T) {
		f := newInventoryFixture(t)
		seedItem(t, f.items, "product-a", 5)

		require.NoError(t, f.release.Execute(context.Background(), &ReleaseInventoryCommand{OrderID: "order-1"}))

		f.publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e events.InventoryRejected) bool {
			return e.Reason == domain.CancelledBeforeReservation
		})).Return(nil).Once()

		cmd := &ReserveInventoryCommand{OrderID: "order-1", Items: []events.LineItem{line("product-a", 3)}}
		require.NoError(t, f.reserve.Execute(context.Background(), cmd))

		available, _ := f.stock(t, "product-a")
		assert.Equal(t, 5, available)
	})
}

func TestReleaseInventory_Execute(t *testing.T) {
	f := newInventoryFixture(t)
	seedItem(t, f.items, "product-a", 5)

	f.publisher.EXPECT().Publish(mock.Anything, mock.AnythingOfType("events.InventoryReserved")).Return(nil).Once()
	require.NoError(t, f.reserve.Execute(context.Background(), &ReserveInventoryCommand{
		OrderID: "order-1",
		Items:   []events.LineItem{line("product-a", 3)},
	}))

	cmd := &ReleaseInventoryCommand{OrderID: "order-1", Reason: "customer request"}
	require.NoError(t, f.release.Execute(context.Background(), cmd))
	require.NoError(t, f.release.Execute(context.Background(), cmd))

	available, reserved := f.stock(t, "product-a")
	assert.Equal(t, 5, available)
	assert.Equal(t, 0, reserved)

	reservation, err := f.reservations.FindByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusReleased, reservation.Status)

	// a late redelivery of the payment publishes nothing for a released order
	require.NoError(t, f.reserve.Execute(context.Background(), &ReserveInventoryCommand{
		OrderID: "order-1",
		Items:   []events.LineItem{line("product-a", 3)},
	}))
}

// interleavedReservations runs a competing delivery right after the first
// lookup that finds no reservation, before the caller writes its decision
type interleavedReservations struct {
	*infrastructure.MemoryReservationRepository
	interleave func()
}

func (r *interleavedReservations) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.Reservation, error) {
	reservation, err := r.MemoryReservationRepository.FindByOrderID(ctx, orderID)
	if reservation == nil && err == nil && r.interleave != nil {
		run := r.interleave
		r.interleave = nil
		run()
	}
	return reservation, err
}

func TestReserveInventory_ConcurrentCancellation(t *testing.T) {
	t.Run("cancellation lands between lookup and reservation", func(t *testing.T) {
		f := newInventoryFixture(t)
		seedItem(t, f.items, "product-a", 5)

		racing := &interleavedReservations{MemoryReservationRepository: f.reservations}
		reserve := NewReserveInventory(f.engine, racing, f.publisher, zap.NewNop())
		racing.interleave = func() {
			require.NoError(t, f.release.Execute(context.Background(), &ReleaseInventoryCommand{OrderID: "order-1"}))
		}

		f.publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(e events.InventoryRejected) bool {
			return e.Reason == domain.CancelledBeforeReservation
		})).Return(nil).Once()

		require.NoError(t, reserve.Execute(context.Background(), &ReserveInventoryCommand{
			OrderID: "order-1",
			Items:   []events.LineItem{line("product-a", 3)},
		}))

		reservation, err := f.reservations.FindByOrderID(context.Background(), "order-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCancelled, reservation.Status)

		available, reserved := f.stock(t, "product-a")
		assert.Equal(t, 5, available)
		assert.Equal(t, 0, reserved)
	})

	t.Run("reservation lands between lookup and tombstone", func(t *testing.T) {
		f := newInventoryFixture(t)
		seedItem(t, f.items, "product-a", 5)

		f.publisher.EXPECT().Publish(mock.Anything, mock.AnythingOfType("events.InventoryReserved")).Return(nil).Once()

		racing := &interleavedReservations{MemoryReservationRepository: f.reservations}
		release := NewReleaseInventory(f.engine, racing, zap.NewNop())
		racing.interleave = func() {
			require.NoError(t, f.reserve.Execute(context.Background(), &ReserveInventoryCommand{
				OrderID: "order-1",
				Items:   []events.LineItem{line("product-a", 3)},
			}))
		}

		require.NoError(t, release.Execute(context.Background(), &ReleaseInventoryCommand{OrderID: "order-1"}))

		reservation, err := f.reservations.FindByOrderID(context.Background(), "order-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusReleased, reservation.Status)

		available, reserved := f.stock(t, "product-a")
		assert.Equal(t, 5, available)
		assert.Equal(t, 0, reserved)
	})
}

func TestReserveInventory_StoreErrors(t *testing.T) {
	f := newInventoryFixture(t)
	seedItem(t, f.items, "product-a", 5)

	repo := mocks.NewMockReservationRepository(t)
	repo.EXPECT().FindByOrderID(mock.Anything, models.ID("order-1")).Return(nil, nil).Once()
	repo.EXPECT().Create(mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	reserve := NewReserveInventory(f.engine, repo, f.publisher, zap.NewNop())
	err := reserve.Execute(context.Background(), &ReserveInventoryCommand{
		OrderID: "order-1",
		Items:   []events.LineItem{line("product-a", 3)},
	})
	require.Error(t, err)

	available, reserved := f.stock(t, "product-a")
	assert.Equal(t, 5, available, "stock taken before the failed write is given back")
	assert.Equal(t, 0, reserved)
}
