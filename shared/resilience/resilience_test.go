package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errProvider = errors.New("provider timeout")

func TestExecuteWithBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewBreaker(BreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		CoolDown:         time.Minute,
		HalfOpenRequests: 1,
	}, zap.NewNop())

	calls := 0
	failing := func() (string, error) {
		calls++
		return "", errProvider
	}

	for i := 0; i < 3; i++ {
		_, err := ExecuteWithBreaker(cb, failing)
		assert.ErrorIs(t, err, errProvider)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := ExecuteWithBreaker(cb, failing)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 2, CoolDown: time.Minute}, zap.NewNop())

	_, _ = ExecuteWithBreaker(cb, func() (int, error) { return 0, errProvider })
	v, err := ExecuteWithBreaker(cb, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, _ = ExecuteWithBreaker(cb, func() (int, error) { return 0, errProvider })
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		permanent bool
		wantCalls int
		wantErr   bool
	}{
		{name: "first call succeeds", failures: 0, wantCalls: 1},
		{name: "succeeds on last attempt", failures: 2, wantCalls: 3},
		{name: "attempts exhausted", failures: 5, wantCalls: 3, wantErr: true},
		{name: "permanent error stops retrying", failures: 5, permanent: true, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			res, err := Retry(context.Background(), cfg, func(context.Context) (string, error) {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return "", Permanent(errProvider)
					}
					return "", errProvider
				}
				return "ok", nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, errProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", res)
		})
	}
}
