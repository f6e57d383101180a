// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay moves media from network callbacks to the loops that
// consume it.
//
// Two concurrency domains meet here. Media callbacks (pion's track
// readers) produce video frames and audio samples on their own
// goroutines and must never block. Consumers run on their own
// schedules: a display loop pulls frames, and an audio output stream
// pulls a fixed number of samples every period.
//
// [Queue] is the video hand-off: unbounded, Push never blocks, and
// [Queue.Receive] waits at most a caller-chosen timeout so the display
// loop stays responsive to cancellation while the queue is empty.
//
// [SampleBuffer] is the audio hand-off: a bounded PCM ring that drops
// the oldest samples on overflow and never blocks a reader.
//
// [OutputStream] is the audio clock: it invokes a callback once per
// period, driven by a [clock.Clock], and writes the filled buffer as
// little-endian 16-bit PCM.
package relay
