// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time moves only when Advance is
// called; timers, tickers, and sleeps fire during Advance. It is safe
// for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*pendingTimer
	changed *sync.Cond
}

// pendingTimer is one registered timer, ticker, or sleep.
type pendingTimer struct {
	deadline time.Time
	channel  chan time.Time
	// period is non-zero for tickers, which are rescheduled after firing.
	period  time.Duration
	stopped bool
}

// Fake returns a FakeClock reading initial until advanced.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// register adds a pending timer firing after d. Must hold c.mu.
func (c *FakeClock) register(d, period time.Duration) *pendingTimer {
	timer := &pendingTimer{
		deadline: c.now.Add(d),
		channel:  make(chan time.Time, 1),
		period:   period,
	}
	c.pending = append(c.pending, timer)
	c.changed.Broadcast()
	return timer
}

// After returns a channel that receives once the clock has advanced by
// d. If d <= 0 the channel already holds the current time.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	return c.NewTimer(d).C
}

// NewTimer registers a one-shot timer. If d <= 0 it has already fired.
func (c *FakeClock) NewTimer(d time.Duration) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d <= 0 {
		channel := make(chan time.Time, 1)
		channel <- c.now
		return &Timer{C: channel, stop: func() bool { return false }}
	}
	timer := c.register(d, 0)
	return &Timer{C: timer.channel, stop: func() bool { return c.stop(timer) }}
}

// NewTicker registers a periodic timer. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := c.register(d, d)
	return &Ticker{C: timer.channel, stop: func() { c.stop(timer) }}
}

// Sleep blocks until the clock has advanced by d.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// stop marks timer stopped and drops it from the pending list. Reports
// whether it was still pending.
func (c *FakeClock) stop(timer *pendingTimer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for index, candidate := range c.pending {
		if candidate == timer {
			c.pending = append(c.pending[:index], c.pending[index+1:]...)
			timer.stopped = true
			return true
		}
	}
	timer.stopped = true
	return false
}

// Advance moves the clock forward by d and fires every timer whose
// deadline has been reached, in deadline order. A ticker whose period
// fits several times into d fires once per period; ticks that find the
// channel full are dropped, as with time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now

	for {
		var due []*pendingTimer
		remaining := c.pending[:0:0]
		for _, timer := range c.pending {
			if timer.deadline.After(target) {
				remaining = append(remaining, timer)
			} else {
				due = append(due, timer)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.SliceStable(due, func(i, j int) bool {
			return due[i].deadline.Before(due[j].deadline)
		})
		for _, timer := range due {
			select {
			case timer.channel <- timer.deadline:
			default:
			}
			if timer.period > 0 {
				timer.deadline = timer.deadline.Add(timer.period)
				remaining = append(remaining, timer)
			}
		}
		c.pending = remaining
	}
	c.mu.Unlock()
}

// WaitForTimers blocks until at least n timers, tickers, or sleeps are
// pending. Call it before Advance when another goroutine is about to
// register a timer.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of timers, tickers, and sleeps
// waiting to fire.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
