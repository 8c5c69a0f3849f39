// Package executor runs tool operations through a concurrency gate and a deadline race.
package executor

import (
	"context"
	"time"

	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/deadline"
	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/gate"
)

// Options configures an Executor.
type Options struct {
	// MaxConcurrent caps simultaneously running operations; values below 1 become 1.
	MaxConcurrent int
	// Timeout bounds one operation. Zero disables the deadline.
	Timeout time.Duration
}

// Executor admits operations through a Gate and bounds them with a deadline.
type Executor struct {
	gate    *gate.Gate
	timeout time.Duration
}

// New creates an executor owning its own gate.
func New(opts Options) *Executor {
	timeout := opts.Timeout
	if timeout < 0 {
		timeout = 0
	}
	return &Executor{
		gate:    gate.New(opts.MaxConcurrent),
		timeout: timeout,
	}
}

// Timeout returns the default operation deadline.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Stats reports current gate usage.
func (e *Executor) Stats() gate.Stats {
	return e.gate.Stats()
}

// Run executes op with the executor's default deadline.
func Run[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	return RunWithTimeout(ctx, e, 0, op)
}

// RunWithTimeout executes op once a slot is available. A positive timeout
// overrides the executor default. The slot is released on every exit path.
func RunWithTimeout[T any](ctx context.Context, e *Executor, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = e.timeout
	}

	slot, err := e.gate.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer slot.Release()

	return deadline.Run(ctx, timeout, op)
}
