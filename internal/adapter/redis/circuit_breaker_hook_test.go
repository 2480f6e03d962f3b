package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(hook *CircuitBreakerHook, result error) error {
	ctx := context.Background()
	process := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
		return result
	})
	return process(ctx, goredis.NewStringCmd(ctx, "get", "key"))
}

func TestCircuitBreakerHook_NormalOperation(t *testing.T) {
	hook := NewCircuitBreakerHook(newTestMetrics())
	assert.Equal(t, gobreaker.StateClosed, hook.GetState())

	for range 10 {
		assert.NoError(t, runCmd(hook, nil))
	}

	assert.Equal(t, gobreaker.StateClosed, hook.GetState())
	counts := hook.GetCounts()
	assert.Equal(t, uint32(10), counts.Requests)
	assert.Equal(t, uint32(10), counts.TotalSuccesses)
	assert.Equal(t, uint32(0), counts.TotalFailures)
}

func TestCircuitBreakerHook_MissIsSuccess(t *testing.T) {
	hook := NewCircuitBreakerHook(newTestMetrics())

	for range 10 {
		err := runCmd(hook, goredis.Nil)
		assert.ErrorIs(t, err, goredis.Nil)
	}

	assert.Equal(t, gobreaker.StateClosed, hook.GetState())
	assert.Equal(t, uint32(0), hook.GetCounts().TotalFailures)
}

func TestCircuitBreakerHook_TransientFailures(t *testing.T) {
	hook := NewCircuitBreakerHook(newTestMetrics())

	for range 2 {
		err := runCmd(hook, errors.New("connection refused"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	assert.Equal(t, gobreaker.StateClosed, hook.GetState())
}

func TestCircuitBreakerHook_OpensAfterSustainedFailures(t *testing.T) {
	m := newTestMetrics()
	hook := NewCircuitBreakerHook(m)

	for range 5 {
		assert.Error(t, runCmd(hook, errors.New("connection timeout")))
	}

	assert.Equal(t, gobreaker.StateOpen, hook.GetState())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState))
}

func TestCircuitBreakerHook_FailsFastWhenOpen(t *testing.T) {
	hook := NewCircuitBreakerHook(newTestMetrics())
	for range 5 {
		_ = runCmd(hook, errors.New("redis down"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.GetState())

	called := false
	ctx := context.Background()
	process := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
		called = true
		return nil
	})
	err := process(ctx, goredis.NewStringCmd(ctx, "set", "key", "value"))

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "redis circuit breaker")
	assert.False(t, called, "command must not reach redis while the circuit is open")
}

func TestCircuitBreakerHook_RecoversThroughHalfOpen(t *testing.T) {
	hook := &CircuitBreakerHook{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "redis-test",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     50 * time.Millisecond,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
		}),
	}

	for range 3 {
		_ = runCmd(hook, errors.New("redis down"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.GetState())

	assert.Eventually(t, func() bool {
		return hook.GetState() == gobreaker.StateHalfOpen
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, runCmd(hook, nil))
	assert.Equal(t, gobreaker.StateClosed, hook.GetState())
}

func TestCircuitBreakerHook_Pipeline(t *testing.T) {
	hook := NewCircuitBreakerHook(newTestMetrics())
	ctx := context.Background()

	process := hook.ProcessPipelineHook(func(ctx context.Context, cmds []goredis.Cmder) error {
		return errors.New("pipeline failed")
	})
	for range 5 {
		_ = process(ctx, []goredis.Cmder{goredis.NewStatusCmd(ctx, "ping")})
	}

	assert.Equal(t, gobreaker.StateOpen, hook.GetState())
}

func TestStateToFloat(t *testing.T) {
	assert.Equal(t, 0.0, stateToFloat(gobreaker.StateClosed))
	assert.Equal(t, 1.0, stateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, 2.0, stateToFloat(gobreaker.StateOpen))
}
