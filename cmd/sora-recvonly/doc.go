// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Sora-recvonly joins a Sora channel as a receive-only client and
// records what it receives.
//
// Video frames arrive on pion's track goroutines and are handed through
// a relay.Queue to the display loop, which waits at most one second per
// frame so that shutdown is never stuck behind an empty queue. The
// "display" is a recorder: VP8 and VP9 go into an IVF file, H.264 is
// written as an Annex-B elementary stream. Audio is decoded to 16-bit
// PCM and pulled by a relay.OutputStream every 10 ms; its callback
// fills short reads with silence and logs the underrun.
//
// On SIGINT or SIGTERM, or when the server ends the session, the client
// disconnects, closes the recording, waits for the disconnect callback
// and stops the audio stream.
package main
