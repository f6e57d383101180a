// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform identifies the host build platform and maps it to the
// package-name string used in prebuilt artifact filenames.
//
// A [Target] is an (OS family, OS version, architecture) triple. The OS
// family is one of a closed set: windows, macos, ubuntu,
// raspberry-pi-os, jetson. Only ubuntu carries a version, read from
// VERSION_ID in /etc/os-release. Architectures are normalized to
// x86_64 (from AMD64 or x86_64) and arm64 (from aarch64 or arm64).
//
// [Resolve] probes the running host. Anything outside the closed sets
// fails with [*UnsupportedPlatformError]; there is no default platform.
// [Parse] reverses [Target.PackageName] for callers that build for an
// explicitly named target.
package platform
