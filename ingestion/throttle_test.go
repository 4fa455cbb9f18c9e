package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopThrottle(t *testing.T) {
	assert.NoError(t, NoopThrottle{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NoopThrottle{}.Wait(ctx), context.Canceled)
}

func TestPacingThrottle_PausesEveryN(t *testing.T) {
	throttle, err := NewPacingThrottle(5, time.Second)
	require.NoError(t, err)

	var pauses []int
	calls := 0
	throttle.sleep = func(_ context.Context, d time.Duration) error {
		assert.Equal(t, time.Second, d)
		pauses = append(pauses, calls)
		return nil
	}

	for calls = 0; calls < 12; calls++ {
		require.NoError(t, throttle.Wait(context.Background()))
	}

	// No pause before the first call, then one before calls 5 and 10.
	assert.Equal(t, []int{5, 10}, pauses)
}

func TestPacingThrottle_ZeroDelay(t *testing.T) {
	throttle, err := NewPacingThrottle(1, 0)
	require.NoError(t, err)
	throttle.sleep = func(context.Context, time.Duration) error {
		t.Fatal("should not sleep")
		return nil
	}

	for range 3 {
		require.NoError(t, throttle.Wait(context.Background()))
	}
}

func TestPacingThrottle_CanceledDuringPause(t *testing.T) {
	throttle, err := NewPacingThrottle(1, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, throttle.Wait(ctx))

	cancel()
	assert.ErrorIs(t, throttle.Wait(ctx), context.Canceled)
}

func TestNewPacingThrottle_Invalid(t *testing.T) {
	_, err := NewPacingThrottle(0, time.Second)
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = NewPacingThrottle(5, -time.Second)
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestRateThrottle(t *testing.T) {
	throttle, err := NewRateThrottle(1000, 0)
	require.NoError(t, err)

	start := time.Now()
	for range 3 {
		require.NoError(t, throttle.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)

	_, err = NewRateThrottle(0, 1)
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
