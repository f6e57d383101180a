// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

import (
	"strings"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// TrackKind is "audio" or "video".
type TrackKind string

const (
	KindAudio TrackKind = "audio"
	KindVideo TrackKind = "video"
)

// packetSource yields the RTP packets of one track until it ends.
type packetSource interface {
	ReadPacket() (*rtp.Packet, error)
}

// Track is a remote media track. Attach exactly one sink to it: sinks
// consume the packet stream.
type Track struct {
	Kind     TrackKind
	ID       string
	StreamID string
	// MimeType is the negotiated codec, e.g. "video/VP8".
	MimeType  string
	ClockRate uint32
	Channels  uint16

	source packetSource
}

// Codec returns the codec name without its media-type prefix, in
// upper case: "VP8", "PCMU".
func (t *Track) Codec() string {
	_, name, found := strings.Cut(t.MimeType, "/")
	if !found {
		name = t.MimeType
	}
	return strings.ToUpper(name)
}

type remoteSource struct {
	remote *webrtc.TrackRemote
}

func (s remoteSource) ReadPacket() (*rtp.Packet, error) {
	packet, _, err := s.remote.ReadRTP()
	return packet, err
}

func newRemoteTrack(remote *webrtc.TrackRemote) *Track {
	codec := remote.Codec()
	kind := KindVideo
	if remote.Kind() == webrtc.RTPCodecTypeAudio {
		kind = KindAudio
	}
	return &Track{
		Kind:      kind,
		ID:        remote.ID(),
		StreamID:  remote.StreamID(),
		MimeType:  codec.MimeType,
		ClockRate: codec.ClockRate,
		Channels:  codec.Channels,
		source:    remoteSource{remote: remote},
	}
}
