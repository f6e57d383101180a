// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

import (
	"bytes"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/bureau-foundation/sora-sdk/lib/testutil"
)

// channelSource feeds packets to a sink; closing packets ends the track.
type channelSource struct {
	packets chan *rtp.Packet
}

func newChannelSource() *channelSource {
	return &channelSource{packets: make(chan *rtp.Packet, 64)}
}

func (s *channelSource) ReadPacket() (*rtp.Packet, error) {
	packet, ok := <-s.packets
	if !ok {
		return nil, io.EOF
	}
	return packet, nil
}

func TestDecodeULaw(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		input byte
		want  int16
	}{
		{0xFF, 0},
		{0x7F, 0},
		{0x80, 32124},
		{0x00, -32124},
		{0xF0, 120},
		{0x70, -120},
	} {
		if got := decodeULaw(test.input); got != test.want {
			t.Errorf("decodeULaw(%#02x) = %d, want %d", test.input, got, test.want)
		}
	}
}

func TestDecodeALaw(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		input byte
		want  int16
	}{
		{0xD5, 8},
		{0x55, -8},
		{0xAA, 32256},
		{0x2A, -32256},
	} {
		if got := decodeALaw(test.input); got != test.want {
			t.Errorf("decodeALaw(%#02x) = %d, want %d", test.input, got, test.want)
		}
	}
}

func TestResampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		inputRate  int
		outputRate int
		chunks     [][]int16
		want       []int16
	}{
		{"upsample", 8000, 16000, [][]int16{{0, 100}, {200}}, []int16{0, 50, 100, 150, 200}},
		{"passthrough", 8000, 8000, [][]int16{{1, 2, 3}, {4, 5}}, []int16{1, 2, 3, 4, 5}},
		{"downsample", 16000, 8000, [][]int16{{0, 10, 20, 30}, {40, 50}}, []int16{0, 20, 40}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := newResampler(test.inputRate, test.outputRate)
			var got []int16
			for _, chunk := range test.chunks {
				got = r.process(chunk, got)
			}
			if !slices.Equal(got, test.want) {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}
}

func TestAudioSinkRead(t *testing.T) {
	t.Parallel()

	source := newChannelSource()
	track := &Track{Kind: KindAudio, ID: "audio0", MimeType: "audio/PCMU", ClockRate: 8000, Channels: 1, source: source}
	sink, err := NewAudioSink(track, 16000, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	dst := make([]int16, 2000)
	if n := sink.Read(dst[:320]); n != 0 {
		t.Errorf("Read before any packet = %d samples, want 0", n)
	}

	payload := bytes.Repeat([]byte{0x80}, 160)
	source.packets <- &rtp.Packet{Header: rtp.Header{SequenceNumber: 1, Timestamp: 0}, Payload: payload}
	source.packets <- &rtp.Packet{Header: rtp.Header{SequenceNumber: 2, Timestamp: 160}, Payload: payload}
	close(source.packets)
	testutil.RequireClosed(t, sink.Done(), 5*time.Second, "audio track end")
	if err := sink.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	// 320 input samples at 8 kHz become 639 frames at 16 kHz (the last
	// interpolation point waits for the next packet).
	if n := sink.Read(dst[:640]); n != 640 {
		t.Fatalf("Read(640) = %d samples, want 640", n)
	}
	for index, sample := range dst[:640] {
		if sample != 32124 {
			t.Fatalf("sample %d = %d, want 32124", index, sample)
		}
	}

	if n := sink.Read(dst); n != 638 {
		t.Errorf("short Read = %d samples, want 638", n)
	}
	if n := sink.Read(dst[:2]); n != 0 {
		t.Errorf("Read on drained sink = %d samples, want 0", n)
	}
}

// Not parallel: AllocsPerRun counts allocations process-wide.
func TestAudioSinkReadDoesNotAllocate(t *testing.T) {
	source := newChannelSource()
	track := &Track{Kind: KindAudio, ID: "audio0", MimeType: "audio/PCMU", ClockRate: 8000, Channels: 1, source: source}
	sink, err := NewAudioSink(track, 8000, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	source.packets <- &rtp.Packet{Header: rtp.Header{SequenceNumber: 1}, Payload: bytes.Repeat([]byte{0x80}, 160)}
	close(source.packets)
	testutil.RequireClosed(t, sink.Done(), 5*time.Second, "audio track end")

	dst := make([]int16, 16)
	if allocs := testing.AllocsPerRun(100, func() { sink.Read(dst) }); allocs != 0 {
		t.Errorf("Read allocated %v times per call, want 0", allocs)
	}
}

func TestNewAudioSinkRejects(t *testing.T) {
	t.Parallel()

	opus := &Track{Kind: KindAudio, MimeType: "audio/opus", source: newChannelSource()}
	if _, err := NewAudioSink(opus, 48000, 2, nil); err == nil {
		t.Error("NewAudioSink accepted opus")
	}
	video := &Track{Kind: KindVideo, MimeType: "video/VP8", source: newChannelSource()}
	if _, err := NewAudioSink(video, 16000, 1, nil); err == nil {
		t.Error("NewAudioSink accepted a video track")
	}
	pcmu := &Track{Kind: KindAudio, MimeType: "audio/PCMU", source: newChannelSource()}
	if _, err := NewAudioSink(pcmu, 0, 1, nil); err == nil {
		t.Error("NewAudioSink accepted a zero sample rate")
	}
}

func TestTrackCodec(t *testing.T) {
	t.Parallel()

	for mimeType, want := range map[string]string{
		"video/VP8":  "VP8",
		"video/h264": "H264",
		"audio/PCMU": "PCMU",
		"opus":       "OPUS",
	} {
		track := &Track{MimeType: mimeType}
		if got := track.Codec(); got != want {
			t.Errorf("Codec(%q) = %q, want %q", mimeType, got, want)
		}
	}
}
