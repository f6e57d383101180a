// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package deps acquires the prebuilt native dependencies of the Sora
// SDK extension and derives the build configuration that consumes them.
//
// The pipeline, run by [Installer.Install], is strictly sequential:
//
//	webrtc → llvm (Ubuntu only) → boost → lyra → sora
//
// Each step is gated by a version marker (lib/marker) at
// <install>/<kind>.version, so a re-run with unchanged pins performs no
// network or filesystem work. Archive steps download with lib/fetch and
// unpack with lib/archive into <install>/<kind>. The LLVM step instead
// shallow-clones three toolchain sources (lib/git) at commits pinned by
// the WebRTC archive's VERSIONS file and runs the clang update script.
//
// Pinned versions come from the project VERSION file ([LoadVersions]).
// All working files live under one deps directory split into
// _source, _build and _install ([Layout]); [AcquireDir] supplies a
// temporary one when none is configured.
//
// [CMakeArgs] and [Builder] turn an installed layout into the cmake
// configure/build invocations for the native extension.
package deps
