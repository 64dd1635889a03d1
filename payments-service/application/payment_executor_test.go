package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/payments-service/mocks"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/resilience"
)

var errTimeout = errors.New("provider timeout")

func chargeRequest(orderID models.ID) domain.ChargeRequest {
	return domain.ChargeRequest{
		IdempotencyKey: "order-" + orderID.String(),
		OrderID:        orderID,
		CustomerID:     "customer-1",
		Amount:         models.NewMoney(2500, "USD"),
	}
}

func newExecutor(provider domain.Provider, attempts uint) *PaymentExecutor {
	return NewPaymentExecutor(provider, ExecutorConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:     attempts,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
		},
		Breaker: resilience.BreakerConfig{
			Name:             "test",
			FailureThreshold: 3,
			CoolDown:         time.Minute,
			HalfOpenRequests: 1,
		},
		CallTimeout: time.Second,
	}, zap.NewNop())
}

func TestPaymentExecutor_Charge(t *testing.T) {
	tests := []struct {
		name     string
		attempts uint
		setup    func(p *mocks.MockProvider)
		expected PaymentOutcome
	}{
		{
			name:     "approved charge",
			attempts: 3,
			setup: func(p *mocks.MockProvider) {
				p.EXPECT().Charge(mock.Anything, mock.Anything).
					Return(&domain.ChargeResult{Approved: true, TransactionID: "TXN-1"}, nil).Once()
			},
			expected: PaymentOutcome{Succeeded: true, TransactionID: "TXN-1"},
		},
		{
			name:     "decline is not retried",
			attempts: 3,
			setup: func(p *mocks.MockProvider) {
				p.EXPECT().Charge(mock.Anything, mock.Anything).
					Return(&domain.ChargeResult{DeclineReason: "Insufficient funds"}, nil).Once()
			},
			expected: PaymentOutcome{ErrorMessage: "Insufficient funds"},
		},
		{
			name:     "transient failure is retried",
			attempts: 3,
			setup: func(p *mocks.MockProvider) {
				p.EXPECT().Charge(mock.Anything, mock.Anything).Return(nil, errTimeout).Once()
				p.EXPECT().Charge(mock.Anything, mock.Anything).
					Return(&domain.ChargeResult{Approved: true, TransactionID: "TXN-2"}, nil).Once()
			},
			expected: PaymentOutcome{Succeeded: true, TransactionID: "TXN-2"},
		},
		{
			name:     "exhausted retries fall back",
			attempts: 2,
			setup: func(p *mocks.MockProvider) {
				p.EXPECT().Charge(mock.Anything, mock.Anything).Return(nil, errTimeout).Times(2)
			},
			expected: PaymentOutcome{ErrorMessage: FallbackReason},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mocks.NewMockProvider(t)
			tt.setup(provider)

			outcome := newExecutor(provider, tt.attempts).Charge(context.Background(), chargeRequest("order-1"))
			assert.Equal(t, tt.expected, outcome)
		})
	}
}

func TestPaymentExecutor_BreakerShortCircuits(t *testing.T) {
	provider := mocks.NewMockProvider(t)
	provider.EXPECT().Charge(mock.Anything, mock.Anything).Return(nil, errTimeout).Times(3)

	executor := newExecutor(provider, 1)

	for i := 0; i < 3; i++ {
		outcome := executor.Charge(context.Background(), chargeRequest(models.GenerateUUID()))
		assert.False(t, outcome.Succeeded)
		assert.Equal(t, FallbackReason, outcome.ErrorMessage)
		assert.False(t, outcome.ShortCircuited)
	}
	assert.Equal(t, gobreaker.StateOpen, executor.BreakerState())

	outcome := executor.Charge(context.Background(), chargeRequest(models.GenerateUUID()))
	assert.Equal(t, PaymentOutcome{ErrorMessage: FallbackReason, ShortCircuited: true}, outcome)
	provider.AssertNumberOfCalls(t, "Charge", 3)
}

func TestPaymentExecutor_DeclinesKeepBreakerClosed(t *testing.T) {
	provider := mocks.NewMockProvider(t)
	provider.EXPECT().Charge(mock.Anything, mock.Anything).
		Return(&domain.ChargeResult{DeclineReason: "Insufficient funds"}, nil).Times(5)

	executor := newExecutor(provider, 1)
	for i := 0; i < 5; i++ {
		executor.Charge(context.Background(), chargeRequest(models.GenerateUUID()))
	}

	assert.Equal(t, gobreaker.StateClosed, executor.BreakerState())
}

func TestPaymentExecutor_ChargeIgnoresCallerCancellation(t *testing.T) {
	provider := mocks.NewMockProvider(t)
	provider.EXPECT().Charge(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ domain.ChargeRequest) (*domain.ChargeResult, error) {
			require.NoError(t, ctx.Err())
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "provider calls are bounded by the call timeout")
			return &domain.ChargeResult{Approved: true, TransactionID: "TXN-3"}, nil
		}).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := newExecutor(provider, 1).Charge(ctx, chargeRequest("order-1"))
	assert.True(t, outcome.Succeeded)
}

func TestPaymentExecutor_Reconcile(t *testing.T) {
	t.Run("known charge", func(t *testing.T) {
		provider := mocks.NewMockProvider(t)
		provider.EXPECT().Lookup(mock.Anything, "order-1").
			Return(&domain.ChargeResult{Approved: true, TransactionID: "TXN-4"}, nil).Once()

		outcome, err := newExecutor(provider, 1).Reconcile(context.Background(), "order-1")
		require.NoError(t, err)
		assert.Equal(t, &PaymentOutcome{Succeeded: true, TransactionID: "TXN-4"}, outcome)
	})

	t.Run("unknown charge", func(t *testing.T) {
		provider := mocks.NewMockProvider(t)
		provider.EXPECT().Lookup(mock.Anything, "order-1").Return(nil, domain.ErrChargeNotFound).Once()

		_, err := newExecutor(provider, 1).Reconcile(context.Background(), "order-1")
		assert.ErrorIs(t, err, domain.ErrChargeNotFound)
	})

	t.Run("provider error", func(t *testing.T) {
		provider := mocks.NewMockProvider(t)
		provider.EXPECT().Lookup(mock.Anything, "order-1").Return(nil, errTimeout).Once()

		_, err := newExecutor(provider, 1).Reconcile(context.Background(), "order-1")
		assert.ErrorIs(t, err, errTimeout)
		assert.NotErrorIs(t, err, domain.ErrChargeNotFound)
	})
}

func TestPaymentExecutor_FallbackLogCarriesTrace(t *testing.T) {
	provider := mocks.NewMockProvider(t)
	provider.EXPECT().Charge(mock.Anything, mock.Anything).Return(nil, errTimeout).Once()

	core, logs := observer.New(zap.WarnLevel)
	executor := NewPaymentExecutor(provider, ExecutorConfig{
		Retry:       resilience.RetryConfig{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
		CallTimeout: time.Second,
	}, zap.New(core))

	traceID := trace.TraceID{0x0a, 0x0b, 0x0c, 0x0d, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x10, 0x11, 0x12}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	}))

	outcome := executor.Charge(ctx, chargeRequest("order-1"))
	assert.Equal(t, FallbackReason, outcome.ErrorMessage)

	fallback := logs.FilterMessage("payment provider unavailable, using fallback").All()
	require.Len(t, fallback, 1)
	assert.Equal(t, traceID.String(), fallback[0].ContextMap()["trace_id"])
}
