// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import "sync"

// SampleBuffer is a bounded ring of interleaved 16-bit PCM samples.
// Writers never block: when full, the oldest samples are discarded.
// Readers take what is available.
type SampleBuffer struct {
	mu      sync.Mutex
	ring    []int16
	start   int
	length  int
	dropped uint64
}

// NewSampleBuffer returns a buffer holding at most capacity samples.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity <= 0 {
		panic("relay: non-positive SampleBuffer capacity")
	}
	return &SampleBuffer{ring: make([]int16, capacity)}
}

// Write appends samples, discarding the oldest buffered samples if
// they do not fit. It returns the number of samples discarded.
func (b *SampleBuffer) Write(samples []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.ring)
	discarded := 0
	if len(samples) > capacity {
		discarded += len(samples) - capacity
		samples = samples[len(samples)-capacity:]
	}
	if overflow := b.length + len(samples) - capacity; overflow > 0 {
		b.start = (b.start + overflow) % capacity
		b.length -= overflow
		discarded += overflow
	}

	end := (b.start + b.length) % capacity
	copied := copy(b.ring[end:], samples)
	copy(b.ring, samples[copied:])
	b.length += len(samples)
	b.dropped += uint64(discarded)
	return discarded
}

// Read moves up to len(dst) of the oldest samples into dst and returns
// how many were copied. It never waits.
func (b *SampleBuffer) Read(dst []int16) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(len(dst), b.length)
	first := copy(dst[:n], b.ring[b.start:])
	copy(dst[first:n], b.ring)
	b.start = (b.start + n) % len(b.ring)
	b.length -= n
	return n
}

// Dropped returns the total number of samples discarded on overflow.
func (b *SampleBuffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
