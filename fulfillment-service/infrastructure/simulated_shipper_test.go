package infrastructure

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/fulfillment-service/domain"
)

var trackingFormat = regexp.MustCompile(`^TRK-[0-9A-F]{8}$`)

func TestSimulatedShipper_Ship(t *testing.T) {
	tests := []struct {
		name    string
		config  SimulatedShipperConfig
		wantErr error
	}{
		{name: "ships", config: SimulatedShipperConfig{Seed: 1}},
		{name: "rejects", config: SimulatedShipperConfig{FailureRate: 1, Seed: 1}, wantErr: domain.ErrShipmentRejected},
		{name: "carrier down", config: SimulatedShipperConfig{ErrorRate: 1, Seed: 1}, wantErr: ErrCarrierUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shipper := NewSimulatedShipper(tt.config, zap.NewNop())

			trackingNumber, err := shipper.Ship(context.Background(), domain.ShipmentRequest{Reference: "order-1", OrderID: "1"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Regexp(t, trackingFormat, trackingNumber)
		})
	}
}

func TestSimulatedShipper_RemembersShipment(t *testing.T) {
	shipper := NewSimulatedShipper(SimulatedShipperConfig{Seed: 7}, zap.NewNop())
	req := domain.ShipmentRequest{Reference: "order-1", OrderID: "1"}

	first, err := shipper.Ship(context.Background(), req)
	require.NoError(t, err)

	shipper.config.FailureRate = 1
	second, err := shipper.Ship(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
