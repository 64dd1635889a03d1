package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/shared/events"
)

func TestMemoryReservationRepository(t *testing.T) {
	repo := NewMemoryReservationRepository()
	ctx := context.Background()

	tombstone := domain.NewCancelledReservation("order-1")
	require.NoError(t, repo.Create(ctx, tombstone))

	reserved := domain.NewReservation("order-1", []events.ReservedItem{{ProductID: "product-1", Quantity: 2}})
	assert.ErrorIs(t, repo.Create(ctx, reserved), domain.ErrReservationExists)

	stored, err := repo.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusCancelled, stored.Status)

	require.NoError(t, repo.Create(ctx, domain.NewReservation("order-2", reserved.Items)))
	active, err := repo.FindByOrderID(ctx, "order-2")
	require.NoError(t, err)

	stale := *active
	require.NoError(t, active.Release())
	require.NoError(t, repo.Update(ctx, active))

	require.NoError(t, stale.Release())
	assert.ErrorIs(t, repo.Update(ctx, &stale), domain.ErrReservationConflict)

	assert.ErrorIs(t, repo.Update(ctx, domain.NewReservation("order-3", nil)), domain.ErrReservationConflict)
}
