package deadline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithoutTimeout(t *testing.T) {
	value, err := Run(context.Background(), 0, func(context.Context) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestRunReturnsOperationResult(t *testing.T) {
	value, err := Run(context.Background(), time.Second, func(context.Context) (string, error) {
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", value)
}

func TestRunPassesOperationError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), time.Second, func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestRunTimesOut(t *testing.T) {
	const timeout = 25 * time.Millisecond
	start := time.Now()

	_, err := Run(context.Background(), timeout, func(context.Context) (string, error) {
		time.Sleep(100 * time.Millisecond)
		return "late", nil
	})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, 90*time.Millisecond)
}

func TestRunCancelsOperationContextOnTimeout(t *testing.T) {
	cause := make(chan error, 1)
	_, err := Run(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		cause <- context.Cause(ctx)
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, ErrTimeout)

	select {
	case got := <-cause:
		assert.ErrorIs(t, got, ErrTimeout)
	case <-time.After(time.Second):
		t.Fatal("operation context was not cancelled")
	}
}

func TestRunCancellationTakesPrecedenceOverLateSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Run(ctx, time.Second, func(context.Context) (string, error) {
		cancel()
		return "ignored", nil
	})
	require.ErrorIs(t, err, ErrCancelledByCaller)
}

func TestRunCancellationWithoutTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Run(ctx, 0, func(context.Context) (string, error) {
		cancel()
		return "ignored", nil
	})
	require.ErrorIs(t, err, ErrCancelledByCaller)
}

func TestRunCancellationAwareOperationStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Run(ctx, time.Second, func(opCtx context.Context) (int, error) {
		<-opCtx.Done()
		return 0, opCtx.Err()
	})
	require.ErrorIs(t, err, ErrCancelledByCaller)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRunTimeoutIsNotRelabeledAsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, 20*time.Millisecond, func(context.Context) (int, error) {
		time.Sleep(80 * time.Millisecond)
		return 1, nil
	})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestRunRecoversPanics(t *testing.T) {
	for _, timeout := range []time.Duration{0, time.Second} {
		_, err := Run(context.Background(), timeout, func(context.Context) (int, error) {
			panic("kaboom")
		})
		require.ErrorIs(t, err, ErrPanic)
		assert.Contains(t, err.Error(), "kaboom")
	}
}
