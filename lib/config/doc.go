// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the sora-deps
// build tool.
//
// Configuration comes from a single file named by either the
// SORA_SDK_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). Without either, [Load] returns [Default]: every
// setting has a working default, so a bare checkout builds with no
// configuration file at all.
//
// Variable expansion is performed on path and URL fields after
// loading: ${VAR} and ${VAR:-default} patterns are expanded from the
// environment. The default deps_dir is ${SORA_SDK_DEPS_DIR}, so the
// historical environment variable keeps working; an empty deps_dir
// means "use a temporary directory for this run".
//
// Key exports:
//
//   - [Config] -- deps directory, VERSION file, release mirrors, build settings
//   - [Default] -- the configuration used when no file is given
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other packages of this module.
package config
