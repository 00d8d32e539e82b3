package sim

import (
	"context"
	"fmt"
	"time"
)

// EnqueueOutcome classifies the result of a bounded enqueue attempt.
// A full queue is a normal, typed outcome of park life, not an error.
type EnqueueOutcome int

const (
	EnqueueOK      EnqueueOutcome = iota // item accepted
	EnqueueFull                          // capacity still exhausted when the timeout expired
	EnqueueStopped                       // wait preempted by cancellation or stop
)

func (o EnqueueOutcome) String() string {
	switch o {
	case EnqueueOK:
		return "ok"
	case EnqueueFull:
		return "full"
	case EnqueueStopped:
		return "stopped"
	default:
		return fmt.Sprintf("enqueue_outcome_%d", int(o))
	}
}

// DequeueOutcome classifies the result of a bounded dequeue attempt.
type DequeueOutcome int

const (
	DequeueOK      DequeueOutcome = iota // item delivered
	DequeueEmpty                         // queue still empty when the timeout expired
	DequeueStopped                       // wait preempted by cancellation or stop
)

func (o DequeueOutcome) String() string {
	switch o {
	case DequeueOK:
		return "ok"
	case DequeueEmpty:
		return "empty"
	case DequeueStopped:
		return "stopped"
	default:
		return fmt.Sprintf("dequeue_outcome_%d", int(o))
	}
}

// Queue is a concurrency-safe bounded FIFO. The buffered channel provides
// the bound, the ordering, and exactly-once delivery; no further locking is
// needed. Any number of producers and consumers may share a Queue, though
// multi-consumer use is reserved for multi-server facilities.
type Queue[T any] struct {
	name string
	ch   chan T
}

// NewQueue creates a bounded queue. Capacity must be at least 1.
func NewQueue[T any](name string, capacity int) (*Queue[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("queue %q: capacity must be >= 1, got %d", name, capacity)
	}
	return &Queue[T]{name: name, ch: make(chan T, capacity)}, nil
}

// Name returns the queue's identifier for logging and metrics.
func (q *Queue[T]) Name() string { return q.name }

// Len reports the number of queued items at this instant. Under concurrent
// use it is a point-in-time snapshot, always within [0, Cap].
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap returns the configured capacity bound.
func (q *Queue[T]) Cap() int { return cap(q.ch) }

// Enqueue blocks up to timeout waiting for capacity. A non-positive timeout
// degenerates to TryEnqueue semantics.
func (q *Queue[T]) Enqueue(ctx context.Context, item T, timeout time.Duration) EnqueueOutcome {
	if timeout <= 0 {
		if q.TryEnqueue(item) {
			return EnqueueOK
		}
		return EnqueueFull
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- item:
		return EnqueueOK
	case <-timer.C:
		return EnqueueFull
	case <-ctx.Done():
		return EnqueueStopped
	}
}

// TryEnqueue accepts the item only if capacity is immediately available.
func (q *Queue[T]) TryEnqueue(item T) bool {
	select {
	case q.ch <- item:
		return true
	default:
		return false
	}
}

// Dequeue blocks up to timeout waiting for an item. A non-positive timeout
// degenerates to TryDequeue semantics. The zero value of T is returned for
// non-OK outcomes.
func (q *Queue[T]) Dequeue(ctx context.Context, timeout time.Duration) (T, DequeueOutcome) {
	var zero T
	if timeout <= 0 {
		if item, ok := q.TryDequeue(); ok {
			return item, DequeueOK
		}
		return zero, DequeueEmpty
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case item := <-q.ch:
		return item, DequeueOK
	case <-timer.C:
		return zero, DequeueEmpty
	case <-ctx.Done():
		return zero, DequeueStopped
	}
}

// TryDequeue removes and returns the head item only if one is immediately
// available.
func (q *Queue[T]) TryDequeue() (T, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Drain empties the queue without blocking and returns the removed items in
// FIFO order. Used at shutdown so queued requests can be accounted rather
// than abandoned.
func (q *Queue[T]) Drain() []T {
	var items []T
	for {
		select {
		case item := <-q.ch:
			items = append(items, item)
		default:
			return items
		}
	}
}
