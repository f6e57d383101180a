// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sora is a receive-side client for the Sora WebRTC SFU.
//
// A [Connection] speaks Sora's JSON signaling protocol over a WebSocket
// and answers the server's offers with a pion PeerConnection. ICE is
// vanilla: each answer is sent only after candidate gathering has
// completed, so no trickle candidates are exchanged.
//
// Remote tracks surface through [Options.OnTrack] as [Track] values.
// Attach a [VideoSink] to assemble RTP into encoded frames, or an
// [AudioSink] to decode G.711 audio into 16-bit PCM at the rate and
// channel count the caller asks for.
//
// The end of a connection, whether requested with
// [Connection.Disconnect] or caused by the server or the network, is
// reported exactly once through [Options.OnDisconnect], after which
// [Connection.Done] is closed.
package sora
