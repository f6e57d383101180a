// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers shared by the fetcher and the
// signaling client.
//
// Error bodies are read up to MaxErrorBodySize bytes. Release hosts
// answer failed artifact requests with small HTML or JSON pages; the
// bound keeps a misbehaving server from turning an error report into an
// unbounded read. Artifact bodies themselves are streamed with io.Copy
// and never pass through these helpers.
package netutil

import (
	"io"
	"strings"
)

// MaxErrorBodySize bounds ErrorBody reads: 4 KiB.
const MaxErrorBodySize int64 = 4 << 10

// ErrorBody reads an HTTP error response body and returns it as a
// trimmed string for diagnostic error messages. Read errors are silently
// ignored; a partial or empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBodySize))
	return strings.TrimSpace(string(data))
}
