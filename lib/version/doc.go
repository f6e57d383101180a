// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the sora-deps and
// sora-recvonly binaries.
//
// Three variables may be injected at build time via -ldflags -X:
//
//   - [Version] -- release version string
//   - [GitCommit] -- short git SHA of the build
//   - [BuildTime] -- UTC timestamp of the build
//
// When GitCommit is not injected, the VCS revision that the Go
// toolchain stamps into the binary is used instead, so plain
// "go install" builds still identify their commit.
package version
