// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/sora-sdk/lib/sora"
)

// IVF container layout.
const (
	ivfHeaderSize      = 32
	ivfFrameHeaderSize = 12
	// ivfFrameCountOffset locates the frame count patched on Close.
	ivfFrameCountOffset = 24
	// RTP video timestamps tick at 90 kHz; IVF timestamps use the same
	// timebase so no conversion is needed.
	ivfTimebase = 90000
)

// recorder is the display: it writes VP8/VP9 frames as IVF and H.264
// access units as an Annex-B stream. The container is chosen by the
// first frame; frames of any other codec are dropped.
type recorder struct {
	output io.WriteCloser
	logger *slog.Logger

	codec      string
	firstStamp uint32
	frames     uint32
	dropped    int
}

func newRecorder(output io.WriteCloser, logger *slog.Logger) *recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &recorder{output: output, logger: logger}
}

// Show appends one frame.
func (r *recorder) Show(frame sora.VideoFrame) error {
	if r.codec == "" {
		if err := r.begin(frame); err != nil {
			return err
		}
	}
	if frame.Codec != r.codec {
		r.dropped++
		if r.dropped == 1 {
			r.logger.Warn("dropping frames of a second codec", "recording", r.codec, "codec", frame.Codec)
		}
		return nil
	}
	if frame.DroppedPackets > 0 {
		r.logger.Debug("packet loss before frame", "packets", frame.DroppedPackets)
	}

	if r.codec == "H264" {
		if _, err := r.output.Write(frame.Data); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
		r.frames++
		return nil
	}

	var header [ivfFrameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(len(frame.Data)))
	binary.LittleEndian.PutUint64(header[4:], uint64(frame.Timestamp-r.firstStamp))
	if _, err := r.output.Write(header[:]); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if _, err := r.output.Write(frame.Data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	r.frames++
	return nil
}

func (r *recorder) begin(frame sora.VideoFrame) error {
	var fourcc string
	switch frame.Codec {
	case "VP8":
		fourcc = "VP80"
	case "VP9":
		fourcc = "VP90"
	case "H264":
		r.codec = frame.Codec
		r.logger.Info("recording H.264 Annex-B stream")
		return nil
	default:
		return fmt.Errorf("cannot record codec %q", frame.Codec)
	}
	r.codec = frame.Codec
	r.firstStamp = frame.Timestamp

	width, height := vp8Dimensions(frame)
	var header [ivfHeaderSize]byte
	copy(header[0:], "DKIF")
	binary.LittleEndian.PutUint16(header[4:], 0)
	binary.LittleEndian.PutUint16(header[6:], ivfHeaderSize)
	copy(header[8:], fourcc)
	binary.LittleEndian.PutUint16(header[12:], width)
	binary.LittleEndian.PutUint16(header[14:], height)
	binary.LittleEndian.PutUint32(header[16:], ivfTimebase)
	binary.LittleEndian.PutUint32(header[20:], 1)
	if _, err := r.output.Write(header[:]); err != nil {
		return fmt.Errorf("writing IVF header: %w", err)
	}
	r.logger.Info("recording IVF", "codec", frame.Codec, "width", width, "height", height)
	return nil
}

// vp8Dimensions reads the frame size from a VP8 key frame, or returns
// zeros for anything else.
func vp8Dimensions(frame sora.VideoFrame) (width, height uint16) {
	data := frame.Data
	if frame.Codec != "VP8" || len(data) < 10 || data[0]&0x01 != 0 {
		return 0, 0
	}
	if data[3] != 0x9d || data[4] != 0x01 || data[5] != 0x2a {
		return 0, 0
	}
	return binary.LittleEndian.Uint16(data[6:]) & 0x3fff, binary.LittleEndian.Uint16(data[8:]) & 0x3fff
}

// Close patches the IVF frame count when the output can seek, then
// closes it.
func (r *recorder) Close() error {
	var patchErr error
	if seeker, ok := r.output.(io.WriteSeeker); ok && r.codec != "" && r.codec != "H264" {
		patchErr = r.patchFrameCount(seeker)
	}
	r.logger.Info("recording closed", "frames", r.frames, "dropped", r.dropped)
	return errors.Join(patchErr, r.output.Close())
}

func (r *recorder) patchFrameCount(seeker io.WriteSeeker) error {
	if _, err := seeker.Seek(ivfFrameCountOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to IVF frame count: %w", err)
	}
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], r.frames)
	if _, err := seeker.Write(count[:]); err != nil {
		return fmt.Errorf("writing IVF frame count: %w", err)
	}
	if _, err := seeker.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seeking to end: %w", err)
	}
	return nil
}

// nopWriteCloser discards video when no recording was requested.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
