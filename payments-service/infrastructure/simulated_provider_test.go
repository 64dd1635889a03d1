package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

func TestSimulatedProvider_Charge(t *testing.T) {
	tests := []struct {
		name         string
		config       SimulatedProviderConfig
		amount       int64
		wantApproved bool
		wantErr      error
	}{
		{name: "approves", config: SimulatedProviderConfig{}, amount: 100, wantApproved: true},
		{name: "declines over limit", config: SimulatedProviderConfig{DeclineOver: 1000}, amount: 1001},
		{name: "declines by rate", config: SimulatedProviderConfig{DeclineRate: 1}, amount: 100},
		{name: "fails by rate", config: SimulatedProviderConfig{ErrorRate: 1}, amount: 100, wantErr: ErrProviderTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewSimulatedProvider(tt.config, zap.NewNop())

			res, err := provider.Charge(context.Background(), domain.ChargeRequest{
				IdempotencyKey: "order-1",
				OrderID:        "order-1",
				Amount:         models.NewMoney(tt.amount, "USD"),
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, err := provider.Lookup(context.Background(), "order-1")
				assert.ErrorIs(t, err, domain.ErrChargeNotFound, "failed calls are not remembered")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantApproved, res.Approved)
			if tt.wantApproved {
				assert.Regexp(t, `^TXN-[0-9A-F]{8}$`, res.TransactionID)
			} else {
				assert.Equal(t, InsufficientFunds, res.DeclineReason)
			}
		})
	}
}

func TestSimulatedProvider_IdempotentPerKey(t *testing.T) {
	provider := NewSimulatedProvider(SimulatedProviderConfig{DeclineRate: 0.5, Seed: 7}, zap.NewNop())
	req := domain.ChargeRequest{IdempotencyKey: "order-1", OrderID: "order-1", Amount: models.NewMoney(100, "USD")}

	first, err := provider.Charge(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := provider.Charge(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	looked, err := provider.Lookup(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, first, looked)
}

func TestSimulatedProvider_LatencyHonoursContext(t *testing.T) {
	provider := NewSimulatedProvider(SimulatedProviderConfig{MinLatency: time.Minute}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := provider.Charge(ctx, domain.ChargeRequest{IdempotencyKey: "order-1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
