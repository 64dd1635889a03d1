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

	"github.com/draftea/order-saga/payments-service/domain"
)

var (
	_ domain.Provider = (*SimulatedProvider)(nil)

	ErrProviderTimeout = errors.New("payment provider timeout")
)

const InsufficientFunds = "Insufficient funds"

type SimulatedProviderConfig struct {
	MinLatency  time.Duration
	MaxLatency  time.Duration
	DeclineRate float64
	ErrorRate   float64
	// DeclineOver declines every charge above this amount in minor units.
	// Zero disables it.
	DeclineOver int64
	Seed        int64
}

// SimulatedProvider stands in for an external card processor. Decisions are
// remembered per idempotency key; infrastructure errors are not.
type SimulatedProvider struct {
	mu      sync.Mutex
	rand    *rand.Rand
	charges map[string]domain.ChargeResult
	config  SimulatedProviderConfig
	logger  *zap.Logger
}

func NewSimulatedProvider(config SimulatedProviderConfig, logger *zap.Logger) *SimulatedProvider {
	if config.MaxLatency < config.MinLatency {
		config.MaxLatency = config.MinLatency
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &SimulatedProvider{
		rand:    rand.New(rand.NewSource(seed)),
		charges: make(map[string]domain.ChargeResult),
		config:  config,
		logger:  logger,
	}
}

func (p *SimulatedProvider) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	if err := p.sleep(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if res, ok := p.charges[req.IdempotencyKey]; ok {
		return &res, nil
	}

	if p.rand.Float64() < p.config.ErrorRate {
		p.logger.Warn("simulated provider failure", zap.String("idempotency_key", req.IdempotencyKey))
		return nil, ErrProviderTimeout
	}

	var res domain.ChargeResult
	switch {
	case p.config.DeclineOver > 0 && req.Amount.Amount > p.config.DeclineOver,
		p.rand.Float64() < p.config.DeclineRate:
		res = domain.ChargeResult{DeclineReason: InsufficientFunds}
	default:
		res = domain.ChargeResult{Approved: true, TransactionID: transactionID()}
	}

	p.charges[req.IdempotencyKey] = res
	p.logger.Info("simulated charge decided",
		zap.String("order_id", req.OrderID.String()),
		zap.String("amount", req.Amount.String()),
		zap.Bool("approved", res.Approved),
	)

	return &res, nil
}

func (p *SimulatedProvider) Lookup(_ context.Context, idempotencyKey string) (*domain.ChargeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res, ok := p.charges[idempotencyKey]
	if !ok {
		return nil, domain.ErrChargeNotFound
	}
	return &res, nil
}

func (p *SimulatedProvider) sleep(ctx context.Context) error {
	p.mu.Lock()
	latency := p.config.MinLatency
	if spread := p.config.MaxLatency - p.config.MinLatency; spread > 0 {
		latency += time.Duration(p.rand.Int63n(int64(spread)))
	}
	p.mu.Unlock()

	if latency <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "payment provider call aborted")
	case <-time.After(latency):
		return nil
	}
}

func transactionID() string {
	return "TXN-" + strings.ToUpper(uuid.NewString()[:8])
}
