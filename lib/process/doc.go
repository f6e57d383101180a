// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers shared by the sora-deps
// and sora-recvonly binaries: reporting a fatal error before the
// structured logger exists, and mapping errors to exit codes.
package process
