// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the frame relay
// and the example application's teardown loop.
//
// Code that waits (bounded queue receives, fixed-period audio output,
// polling sleeps) takes a [Clock] instead of calling the time package.
// [Real] is the standard library; [Fake] stands still until the test
// calls [FakeClock.Advance], so periodic and timeout behavior is tested
// without wall-clock sleeps:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	stream := relay.NewOutputStream(relay.StreamConfig{Clock: c, ...})
//	c.WaitForTimers(1)               // the stream's ticker is registered
//	c.Advance(10 * time.Millisecond) // exactly one period elapses
//
// WaitForTimers closes the race between a goroutine registering a timer
// and the test advancing time past it.
package clock
