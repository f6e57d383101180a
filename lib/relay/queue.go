// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bureau-foundation/sora-sdk/lib/clock"
)

// ErrTimeout is returned by Receive when nothing arrived in time.
var ErrTimeout = errors.New("relay: receive timed out")

// Queue is an unbounded FIFO hand-off between producers that must not
// block and consumers that wait with a bound.
type Queue[T any] struct {
	clock clock.Clock

	mu    sync.Mutex
	items []T
	// ready holds a token while items is non-empty and a consumer may be
	// waiting.
	ready chan struct{}
}

// NewQueue returns an empty queue whose Receive timeouts run on c.
func NewQueue[T any](c clock.Clock) *Queue[T] {
	return &Queue[T]{
		clock: c,
		ready: make(chan struct{}, 1),
	}
}

// Push appends item. It never blocks.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryReceive removes and returns the oldest item without waiting.
func (q *Queue[T]) TryReceive() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) > 0 {
		// Pass the wake-up on to the next waiting consumer.
		q.signal()
	}
	return item, true
}

// Receive removes and returns the oldest item, waiting up to timeout
// for one to arrive. It returns ErrTimeout when the wait elapses and
// ctx.Err() when ctx ends first.
func (q *Queue[T]) Receive(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T
	if item, ok := q.TryReceive(); ok {
		return item, nil
	}

	timer := q.clock.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-q.ready:
			if item, ok := q.TryReceive(); ok {
				return item, nil
			}
		case <-timer.C:
			if item, ok := q.TryReceive(); ok {
				return item, nil
			}
			return zero, ErrTimeout
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
