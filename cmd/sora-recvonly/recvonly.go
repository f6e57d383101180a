// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/sora-sdk/lib/clock"
	"github.com/bureau-foundation/sora-sdk/lib/relay"
	"github.com/bureau-foundation/sora-sdk/lib/sora"
)

const (
	// frameWait bounds each display-loop wait on the frame queue.
	frameWait = time.Second
	// disconnectPoll is the teardown polling interval.
	disconnectPoll = 10 * time.Millisecond
)

// connection is the part of sora.Connection the client drives.
type connection interface {
	Connect(ctx context.Context) error
	Disconnect()
}

// audioSource is the part of sora.AudioSink the audio callback reads.
type audioSource interface {
	Read(dst []int16) int
}

// display consumes video frames in arrival order.
type display interface {
	Show(frame sora.VideoFrame) error
	Close() error
}

// Recvonly wires a Sora connection to a display and an audio output.
type Recvonly struct {
	outputRate     int
	outputChannels int
	display        display
	clock          clock.Clock
	logger         *slog.Logger

	frames       *relay.Queue[sora.VideoFrame]
	disconnected atomic.Bool

	mu            sync.Mutex
	audio         audioSource
	video         *sora.VideoSink
	stopLoop      context.CancelFunc
	disconnectErr error
}

// NewRecvonly returns a client producing audio at outputRate Hz with
// outputChannels channels and showing video on display.
func NewRecvonly(outputRate, outputChannels int, display display, c clock.Clock, logger *slog.Logger) *Recvonly {
	if c == nil {
		c = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recvonly{
		outputRate:     outputRate,
		outputChannels: outputChannels,
		display:        display,
		clock:          c,
		logger:         logger,
		frames:         relay.NewQueue[sora.VideoFrame](c),
	}
}

// Attach installs the client's handlers on options.
func (r *Recvonly) Attach(options *sora.Options) {
	options.OnTrack = r.onTrack
	options.OnDisconnect = r.onDisconnect
}

func (r *Recvonly) onTrack(track *sora.Track) {
	switch track.Kind {
	case sora.KindAudio:
		sink, err := sora.NewAudioSink(track, r.outputRate, r.outputChannels, r.logger)
		if err != nil {
			r.logger.Warn("ignoring audio track", "track_id", track.ID, "error", err)
			return
		}
		r.logger.Info("playing audio track", "track_id", track.ID, "codec", track.Codec(),
			"sample_rate", sink.SampleRate(), "channels", sink.Channels())
		r.setAudio(sink)
	case sora.KindVideo:
		sink, err := sora.NewVideoSink(track, r.onFrame, r.logger)
		if err != nil {
			r.logger.Warn("ignoring video track", "track_id", track.ID, "error", err)
			return
		}
		r.mu.Lock()
		r.video = sink
		r.mu.Unlock()
	}
}

func (r *Recvonly) setAudio(source audioSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio = source
}

func (r *Recvonly) onFrame(frame sora.VideoFrame) {
	r.frames.Push(frame)
}

func (r *Recvonly) onDisconnect(err error, message string) {
	r.logger.Info("disconnected", "message", message)
	r.mu.Lock()
	r.disconnectErr = err
	stop := r.stopLoop
	r.mu.Unlock()
	r.disconnected.Store(true)
	if stop != nil {
		stop()
	}
}

// fillAudio is the OutputStream callback. out arrives zeroed, so a
// short read leaves the remainder silent.
func (r *Recvonly) fillAudio(out []int16, frames int) {
	r.mu.Lock()
	source := r.audio
	r.mu.Unlock()
	if source == nil {
		return
	}

	n := source.Read(out[:frames*r.outputChannels])
	if n == 0 {
		r.logger.Warn("no audio data available")
		return
	}
	if got := n / r.outputChannels; got != frames {
		r.logger.Warn("audio underrun", "frames", got, "requested", frames)
	}
}

// Run starts the audio stream, connects, and shows frames until ctx is
// cancelled or the connection ends. It then tears down in order:
// disconnect, close the display, wait for the disconnect callback,
// stop the audio stream. A cancelled ctx is a normal exit; the error
// that ended the connection, if any, is returned.
func (r *Recvonly) Run(ctx context.Context, conn connection, audioOutput io.Writer) error {
	stream, err := relay.NewOutputStream(relay.StreamConfig{
		SampleRate: r.outputRate,
		Channels:   r.outputChannels,
		Output:     audioOutput,
		Clock:      r.clock,
		Logger:     r.logger,
	}, r.fillAudio)
	if err != nil {
		return err
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	r.mu.Lock()
	r.stopLoop = stopLoop
	r.mu.Unlock()

	r.logger.Debug("starting audio output", "sample_rate", r.outputRate, "channels", r.outputChannels, "period", stream.Period())
	stream.Start()
	if err := conn.Connect(ctx); err != nil {
		return errors.Join(err, r.display.Close(), stream.Close())
	}

	loopErr := r.displayLoop(loopCtx)
	r.logger.Debug("display loop ended", "pending_frames", r.frames.Len())

	conn.Disconnect()
	closeErr := r.display.Close()
	for !r.disconnected.Load() {
		r.clock.Sleep(disconnectPoll)
	}
	streamErr := stream.Close()

	r.mu.Lock()
	disconnectErr := r.disconnectErr
	r.mu.Unlock()
	return errors.Join(loopErr, closeErr, streamErr, disconnectErr)
}

func (r *Recvonly) displayLoop(ctx context.Context) error {
	for {
		frame, err := r.frames.Receive(ctx, frameWait)
		switch {
		case errors.Is(err, relay.ErrTimeout):
			continue
		case err != nil:
			return nil
		}
		if err := r.display.Show(frame); err != nil {
			return err
		}
	}
}
