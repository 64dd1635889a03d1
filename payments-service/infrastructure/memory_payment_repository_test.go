package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

func TestMemoryPaymentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPaymentRepository()

	missing, err := repo.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	payment, err := domain.NewPayment("order-1", "customer-1", models.NewMoney(100, "USD"), domain.PaymentMethodTypeCreditCard, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, payment))

	stale := *payment
	require.NoError(t, payment.Succeed("TXN-1"))
	require.NoError(t, repo.Save(ctx, payment))

	require.NoError(t, stale.Fail("declined"))
	stale.Version = models.Version{Value: 2}
	assert.ErrorIs(t, repo.Save(ctx, &stale), domain.ErrPaymentConflict)

	stored, err := repo.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, stored.Status)
	assert.Equal(t, "TXN-1", stored.ProviderTransactionID)
}
