// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/sora-sdk/lib/clock"
)

// FillFunc fills out with one period of interleaved samples for frames
// frames. out is zeroed before every call, so a callback that has no
// data can return without writing. It must not block.
type FillFunc func(out []int16, frames int)

// StreamConfig describes an OutputStream.
type StreamConfig struct {
	// SampleRate is in frames per second.
	SampleRate int
	// Channels is the number of interleaved channels per frame.
	Channels int
	// FramesPerBuffer is the number of frames requested per period.
	// Default: SampleRate/100 (10 ms periods).
	FramesPerBuffer int

	// Output receives each period as little-endian 16-bit PCM.
	Output io.Writer

	Clock  clock.Clock
	Logger *slog.Logger
}

// OutputStream calls a FillFunc once per period and writes the result
// to an io.Writer, standing in for an audio device pulling samples on
// its own clock.
type OutputStream struct {
	config StreamConfig
	fill   FillFunc
	period time.Duration

	buffer []int16
	bytes  []byte

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool

	mu  sync.Mutex
	err error
}

// NewOutputStream validates config and returns a stopped stream.
func NewOutputStream(config StreamConfig, fill FillFunc) (*OutputStream, error) {
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("relay: sample rate must be positive, got %d", config.SampleRate)
	}
	if config.Channels <= 0 {
		return nil, fmt.Errorf("relay: channel count must be positive, got %d", config.Channels)
	}
	if config.FramesPerBuffer == 0 {
		config.FramesPerBuffer = max(config.SampleRate/100, 1)
	}
	if config.FramesPerBuffer < 0 {
		return nil, fmt.Errorf("relay: frames per buffer must be positive, got %d", config.FramesPerBuffer)
	}
	if config.Output == nil {
		return nil, errors.New("relay: output writer is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	samples := config.FramesPerBuffer * config.Channels
	return &OutputStream{
		config: config,
		fill:   fill,
		period: time.Duration(config.FramesPerBuffer) * time.Second / time.Duration(config.SampleRate),
		buffer: make([]int16, samples),
		bytes:  make([]byte, samples*2),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Period returns the interval between callbacks.
func (s *OutputStream) Period() time.Duration { return s.period }

// Start begins invoking the callback. Call Close to stop. Start after
// Close, or a second Start, does nothing.
func (s *OutputStream) Start() {
	select {
	case <-s.stop:
		return
	default:
	}
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	ticker := s.config.Clock.NewTicker(s.period)
	go s.run(ticker)
}

func (s *OutputStream) run(ticker *clock.Ticker) {
	defer close(s.done)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.tick(); err != nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
				s.config.Logger.Error("audio output failed", "error", err)
				return
			}
		}
	}
}

func (s *OutputStream) tick() error {
	clear(s.buffer)
	s.fill(s.buffer, s.config.FramesPerBuffer)
	for index, sample := range s.buffer {
		binary.LittleEndian.PutUint16(s.bytes[index*2:], uint16(sample))
	}
	if _, err := s.config.Output.Write(s.bytes); err != nil {
		return fmt.Errorf("writing audio: %w", err)
	}
	return nil
}

// Done is closed once a started stream has stopped, either through
// Close or after a write error.
func (s *OutputStream) Done() <-chan struct{} { return s.done }

// Close stops the stream, waits for an in-flight callback to finish,
// and returns the write error that stopped it early, if any.
func (s *OutputStream) Close() error {
	s.once.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
