package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/resilience"
	"github.com/draftea/order-saga/shared/telemetry"
)

// FallbackReason is the failure reason when the provider cannot be reached
const FallbackReason = "provider unavailable"

const (
	DefaultCallTimeout = 5 * time.Second
	DefaultMaxAttempts = 3
	DefaultThreshold   = 3
	DefaultCoolDown    = 30 * time.Second
)

// PaymentOutcome is the definitive answer for one charge
type PaymentOutcome struct {
	Succeeded     bool
	TransactionID string
	ErrorMessage  string
	// ShortCircuited is set when the breaker rejected the call without
	// reaching the provider
	ShortCircuited bool
}

type ExecutorConfig struct {
	Retry       resilience.RetryConfig
	Breaker     resilience.BreakerConfig
	CallTimeout time.Duration
}

// PaymentExecutor charges the provider with retry around a circuit breaker.
// It turns every provider behaviour into a PaymentOutcome.
type PaymentExecutor struct {
	provider    domain.Provider
	breaker     *gobreaker.CircuitBreaker
	retry       resilience.RetryConfig
	callTimeout time.Duration
	logger      *zap.Logger
}

func NewPaymentExecutor(provider domain.Provider, cfg ExecutorConfig, logger *zap.Logger) *PaymentExecutor {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "payment-provider"
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = DefaultThreshold
	}
	if cfg.Breaker.CoolDown <= 0 {
		cfg.Breaker.CoolDown = DefaultCoolDown
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}

	return &PaymentExecutor{
		provider:    provider,
		breaker:     resilience.NewBreaker(cfg.Breaker, logger),
		retry:       cfg.Retry,
		callTimeout: cfg.CallTimeout,
		logger:      logger,
	}
}

// Charge never returns an error. Provider calls are detached from ctx
// cancellation so a consumer shutdown cannot abandon a charge halfway.
func (e *PaymentExecutor) Charge(ctx context.Context, req domain.ChargeRequest) PaymentOutcome {
	ctx, span := telemetry.StartSpan(ctx, "payment_executor.charge")
	defer span.End()

	callCtx := context.WithoutCancel(ctx)
	attempts := 0

	result, err := resilience.Retry(callCtx, e.retry, func(ctx context.Context) (*domain.ChargeResult, error) {
		attempts++
		res, err := resilience.ExecuteWithBreaker(e.breaker, func() (*domain.ChargeResult, error) {
			return e.call(ctx, req)
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, resilience.Permanent(err)
		}
		return res, err
	})

	outcome := e.outcome(ctx, result, err)
	logger.Info(ctx, e.logger, "charge finished",
		zap.String("order_id", req.OrderID.String()),
		zap.String("idempotency_key", req.IdempotencyKey),
		zap.Int("attempts", attempts),
		zap.Bool("succeeded", outcome.Succeeded),
		zap.Bool("short_circuited", outcome.ShortCircuited),
		zap.String("error", outcome.ErrorMessage),
	)

	telemetry.RecordCounter(ctx, "payment_provider_calls_total", "Provider calls made by the executor", int64(attempts),
		attribute.Bool("succeeded", outcome.Succeeded),
	)

	return outcome
}

func (e *PaymentExecutor) call(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	res, err := e.provider.Charge(ctx, req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("provider returned no result")
	}
	return res, nil
}

func (e *PaymentExecutor) outcome(ctx context.Context, res *domain.ChargeResult, err error) PaymentOutcome {
	if err != nil {
		logger.Warn(ctx, e.logger, "payment provider unavailable, using fallback", zap.Error(err))
		return PaymentOutcome{
			ErrorMessage:   FallbackReason,
			ShortCircuited: errors.Is(err, resilience.ErrCircuitOpen),
		}
	}

	if !res.Approved {
		reason := res.DeclineReason
		if reason == "" {
			reason = "payment declined"
		}
		return PaymentOutcome{ErrorMessage: reason}
	}

	return PaymentOutcome{Succeeded: true, TransactionID: res.TransactionID}
}

// Reconcile asks the provider what happened to an earlier charge.
// domain.ErrChargeNotFound means it was never accepted and is safe to retry.
func (e *PaymentExecutor) Reconcile(ctx context.Context, idempotencyKey string) (*PaymentOutcome, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.callTimeout)
	defer cancel()

	res, err := e.provider.Lookup(ctx, idempotencyKey)
	if err != nil {
		if errors.Is(err, domain.ErrChargeNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to look up charge")
	}
	if res == nil {
		return nil, domain.ErrChargeNotFound
	}

	outcome := e.outcome(ctx, res, nil)
	return &outcome, nil
}

// BreakerState reports the provider breaker state for diagnostics
func (e *PaymentExecutor) BreakerState() gobreaker.State {
	return e.breaker.State()
}
