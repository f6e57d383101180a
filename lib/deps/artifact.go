// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deps

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/sora-sdk/lib/platform"
)

// Default release download bases.
const (
	DefaultWebRTCBuildReleases = "https://github.com/shiguredo-webrtc-build/webrtc-build/releases/download"
	DefaultSoraCPPSDKReleases  = "https://github.com/shiguredo/sora-cpp-sdk/releases/download"
)

// Releases are the base URLs artifact URLs are built from. Each release
// tag is appended as a path segment, followed by the filename.
type Releases struct {
	WebRTCBuild string
	SoraCPPSDK  string
}

// DefaultReleases returns the public GitHub release locations.
func DefaultReleases() Releases {
	return Releases{
		WebRTCBuild: DefaultWebRTCBuildReleases,
		SoraCPPSDK:  DefaultSoraCPPSDKReleases,
	}
}

// Artifact is one downloadable prebuilt archive.
type Artifact struct {
	Kind Kind
	// Version is the value recorded in the version marker.
	Version  string
	Platform string
	URL      string
	Filename string
}

func newArtifact(kind Kind, version, base, tag, filename, packageName string) Artifact {
	return Artifact{
		Kind:     kind,
		Version:  version,
		Platform: packageName,
		URL:      fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), tag, filename),
		Filename: filename,
	}
}

// ResolveWebRTC returns the webrtc-build archive for target.
func (r Releases) ResolveWebRTC(version string, target platform.Target) Artifact {
	filename := fmt.Sprintf("webrtc.%s.%s", target.PackageName(), target.ArchiveExtension())
	return newArtifact(KindWebRTC, version, r.WebRTCBuild, version, filename, target.PackageName())
}

// ResolveBoost returns the Boost archive built for a Sora C++ SDK release.
func (r Releases) ResolveBoost(version, soraVersion string, target platform.Target) Artifact {
	filename := fmt.Sprintf("boost-%s_sora-cpp-sdk-%s_%s.%s",
		version, soraVersion, target.PackageName(), target.ArchiveExtension())
	return newArtifact(KindBoost, version, r.SoraCPPSDK, soraVersion, filename, target.PackageName())
}

// ResolveLyra returns the Lyra archive built for a Sora C++ SDK release.
func (r Releases) ResolveLyra(version, soraVersion string, target platform.Target) Artifact {
	filename := fmt.Sprintf("lyra-%s_sora-cpp-sdk-%s_%s.%s",
		version, soraVersion, target.PackageName(), target.ArchiveExtension())
	return newArtifact(KindLyra, version, r.SoraCPPSDK, soraVersion, filename, target.PackageName())
}

// ResolveSora returns the Sora C++ SDK archive.
func (r Releases) ResolveSora(version string, target platform.Target) Artifact {
	filename := fmt.Sprintf("sora-cpp-sdk-%s_%s.%s", version, target.PackageName(), target.ArchiveExtension())
	return newArtifact(KindSora, version, r.SoraCPPSDK, version, filename, target.PackageName())
}

// Artifacts returns every downloadable archive for target in
// installation order. The LLVM toolchain is not an archive and is not
// included.
func (r Releases) Artifacts(versions Versions, target platform.Target) []Artifact {
	return []Artifact{
		r.ResolveWebRTC(versions.WebRTCBuild, target),
		r.ResolveBoost(versions.Boost, versions.SoraCPPSDK, target),
		r.ResolveLyra(versions.Lyra, versions.SoraCPPSDK, target),
		r.ResolveSora(versions.SoraCPPSDK, target),
	}
}
