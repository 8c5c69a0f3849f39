// Package deadline races an operation against a wall-clock timeout.
package deadline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when the deadline fires before the operation settles.
	ErrTimeout = errors.New("tool execution timed out")
	// ErrCancelledByCaller is returned when the caller's context ended before the result was delivered.
	ErrCancelledByCaller = errors.New("tool execution aborted by client")
	// ErrPanic wraps a panic raised by the operation.
	ErrPanic = errors.New("tool execution panicked")
)

type outcome[T any] struct {
	value T
	err   error
}

// Run executes op and returns its result unless timeout elapses first.
//
// A zero timeout runs op without a timer. When the timer wins, op's context is
// cancelled with cause ErrTimeout and its eventual result is discarded; op is
// not otherwise stopped. If ctx ends and the timer did not fire, the result is
// replaced by ErrCancelledByCaller.
func Run[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout <= 0 {
		value, err := call(ctx, op)
		if ctx.Err() != nil {
			return zero, ErrCancelledByCaller
		}
		return value, err
	}

	opCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	done := make(chan outcome[T], 1)
	go func() {
		value, err := call(opCtx, op)
		done <- outcome[T]{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	select {
	case res := <-done:
		timer.Stop()
		if ctx.Err() != nil {
			return zero, ErrCancelledByCaller
		}
		return res.value, res.err
	case <-timer.C:
		cancel(ErrTimeout)
		return zero, ErrTimeout
	}
}

func call[T any](ctx context.Context, op func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return op(ctx)
}
