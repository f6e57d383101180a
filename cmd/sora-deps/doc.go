// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Sora-deps prepares the native dependencies of the Sora Python SDK
// and drives its cmake build.
//
// "install" downloads and unpacks the prebuilt libwebrtc, Boost, Lyra
// and Sora C++ SDK archives for the host platform (plus the Chromium
// clang and libc++ sources on Ubuntu) into a deps directory:
//
//	<deps>/_source   downloaded archives and git checkouts
//	<deps>/_build    cmake build trees
//	<deps>/_install  one directory and one <kind>.version marker per dependency
//
// Each step is skipped when its marker already records the pinned
// version, so repeated runs only fetch what changed in the VERSION file.
// The deps directory comes from --deps-dir, the config file, or
// SORA_SDK_DEPS_DIR; when none is set a temporary directory is used and
// removed on exit.
//
// "build" runs install and then configures, builds and installs the
// extension with cmake. "status" compares the markers with the VERSION
// pins. "platform", "fetch" and "extract" expose the individual
// building blocks.
package main
