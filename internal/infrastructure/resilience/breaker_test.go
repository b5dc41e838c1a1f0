package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func run(b *Breaker, success bool) error {
	_, err := b.Execute(func() (interface{}, error) {
		if success {
			return "ok", nil
		}
		return nil, errBoom
	})
	return err
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := New("gen", Settings{})

	for i := 0; i < 10; i++ {
		require.NoError(t, run(b, true))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("gen", Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, run(b, false), errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	err := run(b, true)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := New("gen", Settings{
		MaxRequests: 1,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	require.Error(t, run(b, false))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, run(b, true))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("gen", Settings{
		MaxRequests: 1,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	require.Error(t, run(b, false))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	require.Error(t, run(b, false))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerNotifiesStateChanges(t *testing.T) {
	var transitions []State
	b := New("gen", Settings{
		ReadyToTrip:   func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(_ string, _, to State) { transitions = append(transitions, to) },
	})

	require.Error(t, run(b, false))
	assert.Equal(t, []State{StateOpen}, transitions)
}
