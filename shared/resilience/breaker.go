package resilience

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned instead of calling the protected function while
// the breaker is open or its half-open probe budget is spent.
var ErrCircuitOpen = errors.New("circuit breaker open")

type BreakerConfig struct {
	Name string
	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32
	// CoolDown is how long the breaker stays open before probing again
	CoolDown time.Duration
	// HalfOpenRequests is the number of probe calls allowed while half-open
	HalfOpenRequests uint32
}

func NewBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.CoolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// ExecuteWithBreaker runs fn through cb. Rejections by the breaker are
// reported as ErrCircuitOpen.
func ExecuteWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return *new(T), errors.Wrap(ErrCircuitOpen, err.Error())
		}
		return *new(T), err
	}

	return res.(T), nil
}
