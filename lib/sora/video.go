// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"
)

// maxLatePackets is how far the sample builder looks back for a
// missing packet before giving up on a frame.
const maxLatePackets = 128

// VideoFrame is one encoded frame reassembled from RTP.
type VideoFrame struct {
	// Codec is "VP8", "VP9" or "H264".
	Codec string
	// Data is the codec bitstream: a VP8/VP9 frame or H.264 Annex-B
	// access unit.
	Data []byte
	// Timestamp is the RTP timestamp of the frame (90 kHz).
	Timestamp uint32
	// Duration is derived from the following frame's timestamp.
	Duration time.Duration
	// DroppedPackets counts packets lost since the previous frame.
	DroppedPackets uint16
}

// VideoSink reassembles a video track into frames and passes each to a
// callback on its own goroutine.
type VideoSink struct {
	track   *Track
	builder *samplebuilder.SampleBuilder
	onFrame func(VideoFrame)
	logger  *slog.Logger
	done    chan struct{}
	err     error
}

// NewVideoSink starts consuming track. onFrame runs on the sink's
// goroutine and must not block; hand frames to a relay.Queue.
func NewVideoSink(track *Track, onFrame func(VideoFrame), logger *slog.Logger) (*VideoSink, error) {
	if track.Kind != KindVideo {
		return nil, fmt.Errorf("sora: video sink needs a video track, got %s", track.Kind)
	}
	depacketizer, err := videoDepacketizer(track.Codec())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clockRate := track.ClockRate
	if clockRate == 0 {
		clockRate = 90000
	}

	sink := &VideoSink{
		track:   track,
		builder: samplebuilder.New(maxLatePackets, depacketizer, clockRate),
		onFrame: onFrame,
		logger:  logger.With("track_id", track.ID),
		done:    make(chan struct{}),
	}
	go sink.run()
	return sink, nil
}

func videoDepacketizer(codec string) (rtp.Depacketizer, error) {
	switch codec {
	case "VP8":
		return &codecs.VP8Packet{}, nil
	case "VP9":
		return &codecs.VP9Packet{}, nil
	case "H264":
		return &codecs.H264Packet{}, nil
	default:
		return nil, fmt.Errorf("sora: unsupported video codec %q", codec)
	}
}

func (s *VideoSink) run() {
	defer close(s.done)
	codec := s.track.Codec()
	for {
		packet, err := s.track.source.ReadPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
				s.logger.Warn("video track read failed", "error", err)
			}
			return
		}
		s.builder.Push(packet)
		for sample := s.builder.Pop(); sample != nil; sample = s.builder.Pop() {
			if s.onFrame == nil {
				continue
			}
			s.onFrame(VideoFrame{
				Codec:          codec,
				Data:           sample.Data,
				Timestamp:      sample.PacketTimestamp,
				Duration:       sample.Duration,
				DroppedPackets: sample.PrevDroppedPackets,
			})
		}
	}
}

// Done is closed when the track ends.
func (s *VideoSink) Done() <-chan struct{} { return s.done }

// Err returns the read error that ended the track, or nil after a
// clean end. Valid once Done is closed.
func (s *VideoSink) Err() error {
	<-s.done
	return s.err
}
