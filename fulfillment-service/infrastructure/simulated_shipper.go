package infrastructure

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/fulfillment-service/domain"
)

var (
	_ domain.Shipper = (*SimulatedShipper)(nil)

	ErrCarrierUnavailable = errors.New("carrier unavailable")
)

type SimulatedShipperConfig struct {
	MinLatency  time.Duration
	MaxLatency  time.Duration
	FailureRate float64
	ErrorRate   float64
	Seed        int64
}

// SimulatedShipper stands in for warehouse picking and the carrier booking.
// Shipments are remembered per reference.
type SimulatedShipper struct {
	mu        sync.Mutex
	rand      *rand.Rand
	shipments map[string]string
	config    SimulatedShipperConfig
	logger    *zap.Logger
}

func NewSimulatedShipper(config SimulatedShipperConfig, logger *zap.Logger) *SimulatedShipper {
	if config.MaxLatency < config.MinLatency {
		config.MaxLatency = config.MinLatency
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &SimulatedShipper{
		rand:      rand.New(rand.NewSource(seed)),
		shipments: make(map[string]string),
		config:    config,
		logger:    logger,
	}
}

func (s *SimulatedShipper) Ship(ctx context.Context, req domain.ShipmentRequest) (string, error) {
	if err := s.sleep(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if trackingNumber, ok := s.shipments[req.Reference]; ok {
		return trackingNumber, nil
	}

	if s.rand.Float64() < s.config.ErrorRate {
		return "", ErrCarrierUnavailable
	}
	if s.rand.Float64() < s.config.FailureRate {
		s.logger.Info("simulated shipment rejected", zap.String("order_id", req.OrderID.String()))
		return "", errors.Wrap(domain.ErrShipmentRejected, "warehouse could not pick the order")
	}

	trackingNumber := TrackingNumber()
	s.shipments[req.Reference] = trackingNumber
	return trackingNumber, nil
}

func (s *SimulatedShipper) sleep(ctx context.Context) error {
	s.mu.Lock()
	latency := s.config.MinLatency
	if spread := s.config.MaxLatency - s.config.MinLatency; spread > 0 {
		latency += time.Duration(s.rand.Int63n(int64(spread)))
	}
	s.mu.Unlock()

	if latency <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "shipment aborted")
	case <-time.After(latency):
		return nil
	}
}

// TrackingNumber returns a new number in the TRK-XXXXXXXX format
func TrackingNumber() string {
	return "TRK-" + strings.ToUpper(uuid.NewString()[:8])
}
