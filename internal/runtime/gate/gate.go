// Package gate implements bounded admission control for tool executions.
//
// A Gate holds at most Capacity active slots. Callers beyond that are queued
// in arrival order and promoted one at a time as slots are released. A queued
// caller whose context ends is removed from the queue without ever holding a
// slot. The queue itself is bounded to QueueFactor times the capacity.
package gate

import (
	"container/list"
	"context"
	"errors"
	"sync"
)

// QueueFactor bounds the wait queue relative to the slot capacity.
const QueueFactor = 10

var (
	// ErrConcurrencyLimit is returned when the wait queue is full.
	ErrConcurrencyLimit = errors.New("maximum concurrent tool executions reached")
	// ErrCancelledWhileWaiting is returned when the caller's context ends before a slot opens.
	ErrCancelledWhileWaiting = errors.New("cancelled while waiting for an execution slot")
)

// Stats is a point-in-time view of a gate.
type Stats struct {
	// Active is the number of held slots.
	Active int `json:"active"`
	// Queued is the number of waiting callers.
	Queued int `json:"queued"`
	// Capacity is the slot limit.
	Capacity int `json:"capacity"`
}

// Gate is a FIFO counting semaphore. The zero value is not usable; use New.
type Gate struct {
	mu       sync.Mutex
	capacity int
	active   int
	queue    *list.List
}

type waiter struct {
	ready    chan struct{}
	promoted bool
}

// New returns a gate with the given capacity, coerced to at least 1.
func New(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{capacity: capacity, queue: list.New()}
}

// Acquire obtains a slot, waiting in FIFO order when the gate is full.
// The returned slot must be released exactly once.
func (g *Gate) Acquire(ctx context.Context) (*Slot, error) {
	g.mu.Lock()
	if g.active < g.capacity && g.queue.Len() == 0 {
		g.active++
		g.mu.Unlock()
		return &Slot{gate: g}, nil
	}
	if g.queue.Len() >= g.capacity*QueueFactor {
		g.mu.Unlock()
		return nil, ErrConcurrencyLimit
	}
	if ctx.Err() != nil {
		g.mu.Unlock()
		return nil, ErrCancelledWhileWaiting
	}
	w := &waiter{ready: make(chan struct{})}
	elem := g.queue.PushBack(w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		return &Slot{gate: g}, nil
	case <-ctx.Done():
	}

	g.mu.Lock()
	if w.promoted {
		// release handed us the slot while ctx was ending; pass it on.
		g.mu.Unlock()
		g.release()
		return nil, ErrCancelledWhileWaiting
	}
	g.queue.Remove(elem)
	g.mu.Unlock()
	return nil, ErrCancelledWhileWaiting
}

// Stats returns the current slot usage.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{Active: g.active, Queued: g.queue.Len(), Capacity: g.capacity}
}

// release frees one slot and hands it to the oldest waiter, if any.
func (g *Gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active > 0 {
		g.active--
	}
	front := g.queue.Front()
	if front == nil {
		return
	}
	w := g.queue.Remove(front).(*waiter)
	w.promoted = true
	g.active++
	close(w.ready)
}

// Slot is one unit of the gate's concurrency budget.
type Slot struct {
	once sync.Once
	gate *Gate
}

// Release returns the slot to the gate. Calls after the first are no-ops.
func (s *Slot) Release() {
	if s == nil {
		return
	}
	s.once.Do(s.gate.release)
}
