// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

// G.711 expansion to linear 16-bit PCM.

func decodeULaw(value byte) int16 {
	value = ^value
	exponent := (value >> 4) & 0x07
	mantissa := int32(value & 0x0F)
	sample := ((mantissa << 3) + 0x84) << exponent
	sample -= 0x84
	if value&0x80 != 0 {
		return int16(-sample)
	}
	return int16(sample)
}

func decodeALaw(value byte) int16 {
	value ^= 0x55
	sample := int32(value&0x0F) << 4
	switch segment := (value & 0x70) >> 4; segment {
	case 0:
		sample += 8
	case 1:
		sample += 0x108
	default:
		sample += 0x108
		sample <<= segment - 1
	}
	if value&0x80 != 0 {
		return int16(sample)
	}
	return int16(-sample)
}

// g711Decoder expands a payload of one 8-bit sample per byte.
type g711Decoder func(byte) int16

func (decode g711Decoder) decode(payload []byte, out []int16) []int16 {
	for _, value := range payload {
		out = append(out, decode(value))
	}
	return out
}
