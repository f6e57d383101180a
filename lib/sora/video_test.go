// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

import (
	"bytes"
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/bureau-foundation/sora-sdk/lib/testutil"
)

// vp8Packet wraps body in a one-byte VP8 payload descriptor marking
// the start of a partition.
func vp8Packet(sequence uint16, timestamp uint32, body []byte) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    96,
			SequenceNumber: sequence,
			Timestamp:      timestamp,
			Marker:         true,
		},
		Payload: append([]byte{0x10}, body...),
	}
}

func TestVideoSinkAssemblesFrames(t *testing.T) {
	t.Parallel()

	source := newChannelSource()
	track := &Track{Kind: KindVideo, ID: "video0", MimeType: "video/VP8", ClockRate: 90000, source: source}
	frames := make(chan VideoFrame, 8)
	sink, err := NewVideoSink(track, func(frame VideoFrame) { frames <- frame }, nil)
	if err != nil {
		t.Fatal(err)
	}

	bodies := [][]byte{
		{0x01, 0x02, 0x03, 0x04, 0x05},
		{0x11, 0x12, 0x13, 0x14, 0x15, 0x16},
		{0x21, 0x22, 0x23, 0x24, 0x25},
	}
	for index, body := range bodies {
		source.packets <- vp8Packet(uint16(100+index), uint32(3000*index), body)
	}

	for index := range 2 {
		frame := testutil.RequireReceive(t, frames, 5*time.Second, "frame %d", index)
		if frame.Codec != "VP8" {
			t.Errorf("frame %d codec = %q, want VP8", index, frame.Codec)
		}
		if !bytes.Equal(frame.Data, bodies[index]) {
			t.Errorf("frame %d data = %x, want %x", index, frame.Data, bodies[index])
		}
		if frame.Timestamp != uint32(3000*index) {
			t.Errorf("frame %d timestamp = %d, want %d", index, frame.Timestamp, 3000*index)
		}
	}

	close(source.packets)
	testutil.RequireClosed(t, sink.Done(), 5*time.Second, "video track end")
	if err := sink.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestNewVideoSinkRejectsUnknownCodec(t *testing.T) {
	t.Parallel()

	track := &Track{Kind: KindVideo, MimeType: "video/AV1", source: newChannelSource()}
	if _, err := NewVideoSink(track, func(VideoFrame) {}, nil); err == nil {
		t.Error("NewVideoSink accepted AV1")
	}
}
