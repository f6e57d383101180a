// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/sora-sdk/lib/relay"
)

// audioBufferSeconds bounds how much decoded audio an idle reader lets
// accumulate before the oldest samples are dropped.
const audioBufferSeconds = 1

// AudioSink decodes an audio track into interleaved 16-bit PCM at a
// caller-chosen rate and channel count. Decoded samples collect in a
// bounded buffer that Read drains.
type AudioSink struct {
	track      *Track
	sampleRate int
	channels   int
	decoder    g711Decoder
	resampler  *resampler
	buffer     *relay.SampleBuffer
	logger     *slog.Logger
	done       chan struct{}
	err        error
}

// NewAudioSink starts consuming track. The track must carry PCMU or
// PCMA (mono, 8 kHz); output is converted to sampleRate Hz with
// channels interleaved channels.
func NewAudioSink(track *Track, sampleRate, channels int, logger *slog.Logger) (*AudioSink, error) {
	if track.Kind != KindAudio {
		return nil, fmt.Errorf("sora: audio sink needs an audio track, got %s", track.Kind)
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("sora: invalid audio output %d Hz x %d channels", sampleRate, channels)
	}
	var decoder g711Decoder
	switch track.Codec() {
	case "PCMU":
		decoder = decodeULaw
	case "PCMA":
		decoder = decodeALaw
	default:
		return nil, fmt.Errorf("sora: unsupported audio codec %q", track.Codec())
	}
	inputRate := int(track.ClockRate)
	if inputRate == 0 {
		inputRate = 8000
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sink := &AudioSink{
		track:      track,
		sampleRate: sampleRate,
		channels:   channels,
		decoder:    decoder,
		resampler:  newResampler(inputRate, sampleRate),
		buffer:     relay.NewSampleBuffer(sampleRate * channels * audioBufferSeconds),
		logger:     logger.With("track_id", track.ID),
		done:       make(chan struct{}),
	}
	go sink.run()
	return sink, nil
}

func (s *AudioSink) run() {
	defer close(s.done)
	var decoded, resampled, interleaved []int16
	for {
		packet, err := s.track.source.ReadPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
				s.logger.Warn("audio track read failed", "error", err)
			}
			s.logger.Debug("audio track ended", "dropped_samples", s.buffer.Dropped())
			return
		}
		decoded = s.decoder.decode(packet.Payload, decoded[:0])
		resampled = s.resampler.process(decoded, resampled[:0])
		interleaved = interleave(resampled, s.channels, interleaved[:0])
		if dropped := s.buffer.Write(interleaved); dropped > 0 {
			s.logger.Debug("audio buffer overflow", "dropped_samples", dropped)
		}
	}
}

// Read fills dst with buffered interleaved samples and returns how many
// were written; 0 means no audio is buffered. A short count means the
// buffer held less than len(dst). Read never blocks or allocates, so it
// is safe to call from an audio device callback.
func (s *AudioSink) Read(dst []int16) int {
	return s.buffer.Read(dst)
}

// SampleRate returns the output rate in Hz.
func (s *AudioSink) SampleRate() int { return s.sampleRate }

// Channels returns the output channel count.
func (s *AudioSink) Channels() int { return s.channels }

// Done is closed when the track ends.
func (s *AudioSink) Done() <-chan struct{} { return s.done }

// Err returns the read error that ended the track, or nil after a
// clean end. Valid once Done is closed.
func (s *AudioSink) Err() error {
	<-s.done
	return s.err
}

// interleave copies mono samples into every output channel.
func interleave(mono []int16, channels int, out []int16) []int16 {
	if channels == 1 {
		return append(out, mono...)
	}
	for _, sample := range mono {
		for range channels {
			out = append(out, sample)
		}
	}
	return out
}

// resampler converts a mono stream between rates by linear
// interpolation, carrying its position across calls so packet
// boundaries do not click.
type resampler struct {
	step     float64
	position float64
	previous int16
	primed   bool
	window   []int16
}

func newResampler(inputRate, outputRate int) *resampler {
	return &resampler{step: float64(inputRate) / float64(outputRate)}
}

func (r *resampler) process(input, out []int16) []int16 {
	if len(input) == 0 {
		return out
	}
	// window[0] is the last sample of the previous call once primed.
	r.window = r.window[:0]
	if r.primed {
		r.window = append(r.window, r.previous)
	}
	r.window = append(r.window, input...)

	last := float64(len(r.window) - 1)
	for r.position <= last {
		index := int(r.position)
		fraction := r.position - float64(index)
		sample := float64(r.window[index])
		if index+1 < len(r.window) {
			sample += (float64(r.window[index+1]) - sample) * fraction
		}
		out = append(out, int16(sample))
		r.position += r.step
	}
	// Re-base so the carried sample is index 0 of the next window.
	r.position -= last
	r.previous = r.window[len(r.window)-1]
	r.primed = true
	return out
}
