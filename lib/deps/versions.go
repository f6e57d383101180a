// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deps

import (
	"fmt"

	"github.com/bureau-foundation/sora-sdk/lib/keyvalue"
)

// Keys of the project VERSION file.
const (
	keyWebRTCBuild = "WEBRTC_BUILD_VERSION"
	keyBoost       = "BOOST_VERSION"
	keyLyra        = "LYRA_VERSION"
	keySoraCPPSDK  = "SORA_CPP_SDK_VERSION"
)

// Keys of the VERSIONS file shipped inside the WebRTC archive that pin
// the toolchain sources used by the LLVM step.
const (
	keyToolsURL         = "WEBRTC_SRC_TOOLS_URL"
	keyToolsCommit      = "WEBRTC_SRC_TOOLS_COMMIT"
	keyLibcxxURL        = "WEBRTC_SRC_BUILDTOOLS_THIRD_PARTY_LIBCXX_TRUNK_URL"
	keyLibcxxCommit     = "WEBRTC_SRC_BUILDTOOLS_THIRD_PARTY_LIBCXX_TRUNK_COMMIT"
	keyBuildtoolsURL    = "WEBRTC_SRC_BUILDTOOLS_URL"
	keyBuildtoolsCommit = "WEBRTC_SRC_BUILDTOOLS_COMMIT"
)

// Versions are the pinned dependency versions of the project.
type Versions struct {
	WebRTCBuild string
	Boost       string
	Lyra        string
	SoraCPPSDK  string
}

// LoadVersions reads the project VERSION file. Every pin is required.
func LoadVersions(path string) (Versions, error) {
	values, err := keyvalue.ReadFile(path)
	if err != nil {
		return Versions{}, err
	}
	pins, err := keyvalue.Require(values, keyWebRTCBuild, keyBoost, keyLyra, keySoraCPPSDK)
	if err != nil {
		return Versions{}, fmt.Errorf("%s: %w", path, err)
	}
	return Versions{
		WebRTCBuild: pins[0],
		Boost:       pins[1],
		Lyra:        pins[2],
		SoraCPPSDK:  pins[3],
	}, nil
}

// ToolchainSources are the git sources of the Chromium clang toolchain
// and libc++ that WebRTC was built with.
type ToolchainSources struct {
	ToolsURL         string
	ToolsCommit      string
	LibcxxURL        string
	LibcxxCommit     string
	BuildtoolsURL    string
	BuildtoolsCommit string
}

// LoadToolchainSources reads the toolchain pins from a WebRTC VERSIONS
// file.
func LoadToolchainSources(path string) (ToolchainSources, error) {
	values, err := keyvalue.ReadFile(path)
	if err != nil {
		return ToolchainSources{}, err
	}
	pins, err := keyvalue.Require(values,
		keyToolsURL, keyToolsCommit,
		keyLibcxxURL, keyLibcxxCommit,
		keyBuildtoolsURL, keyBuildtoolsCommit)
	if err != nil {
		return ToolchainSources{}, fmt.Errorf("%s: %w", path, err)
	}
	return ToolchainSources{
		ToolsURL:         pins[0],
		ToolsCommit:      pins[1],
		LibcxxURL:        pins[2],
		LibcxxCommit:     pins[3],
		BuildtoolsURL:    pins[4],
		BuildtoolsCommit: pins[5],
	}, nil
}

// Version is the composite marker version of the LLVM step: all six
// pins joined with dots, so a change to any of them reinstalls.
func (s ToolchainSources) Version() string {
	return s.ToolsURL + "." + s.ToolsCommit + "." +
		s.LibcxxURL + "." + s.LibcxxCommit + "." +
		s.BuildtoolsURL + "." + s.BuildtoolsCommit
}
