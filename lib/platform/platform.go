// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/bureau-foundation/sora-sdk/lib/keyvalue"
)

// OS is a recognized operating system family.
type OS string

const (
	Windows       OS = "windows"
	MacOS         OS = "macos"
	Ubuntu        OS = "ubuntu"
	RaspberryPiOS OS = "raspberry-pi-os"
	Jetson        OS = "jetson"
)

// Arch is a canonical architecture tag.
type Arch string

const (
	X86_64 Arch = "x86_64"
	ARM64  Arch = "arm64"
)

// osReleasePath is the release descriptor consulted on Linux hosts.
const osReleasePath = "/etc/os-release"

// jetsonPackageName is fixed: Jetson artifacts are only published for
// one L4T base image.
const jetsonPackageName = "ubuntu-20.04_armv8_jetson"

// Target identifies the platform artifacts are built for.
type Target struct {
	OS OS
	// OSVersion is set only for Ubuntu (e.g., "22.04").
	OSVersion string
	Arch      Arch
}

// PackageName returns the platform component of artifact filenames.
func (t Target) PackageName() string {
	switch t.OS {
	case Windows:
		return "windows_" + string(t.Arch)
	case MacOS:
		return "macos_" + string(t.Arch)
	case Ubuntu:
		return fmt.Sprintf("ubuntu-%s_%s", t.OSVersion, t.Arch)
	case RaspberryPiOS:
		return "raspberry-pi-os_" + string(t.Arch)
	case Jetson:
		return jetsonPackageName
	}
	// Targets are only constructed by Resolve and Parse, which reject
	// every other OS value.
	panic(fmt.Sprintf("platform: unrecognized OS %q", t.OS))
}

// ArchiveExtension is the extension used for this target's prebuilt
// archives: zip on Windows, gzip-compressed tar everywhere else.
func (t Target) ArchiveExtension() string {
	if t.OS == Windows {
		return "zip"
	}
	return "tar.gz"
}

func (t Target) String() string { return t.PackageName() }

// UnsupportedPlatformError reports an OS family or architecture outside
// the supported set. It is never retried.
type UnsupportedPlatformError struct {
	// Kind is "OS" or "architecture".
	Kind  string
	Value string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("%s %q not supported", e.Kind, e.Value)
}

// Resolve detects the host platform.
func Resolve() (Target, error) {
	return resolveFrom(runtime.GOOS, machine(), osReleasePath)
}

// resolveFrom is the testable implementation of Resolve. goos is a
// runtime.GOOS value, machineName the raw uname machine string, and
// releasePath the os-release file consulted for Linux.
func resolveFrom(goos, machineName, releasePath string) (Target, error) {
	var target Target

	switch goos {
	case "windows":
		target.OS = Windows
	case "darwin":
		target.OS = MacOS
	case "linux":
		release, err := keyvalue.ReadFile(releasePath)
		if err != nil {
			return Target{}, fmt.Errorf("identifying Linux distribution: %w", err)
		}
		name := release["NAME"]
		if name != "Ubuntu" {
			return Target{}, &UnsupportedPlatformError{Kind: "OS", Value: name}
		}
		target.OS = Ubuntu
		target.OSVersion = release["VERSION_ID"]
		if target.OSVersion == "" {
			return Target{}, fmt.Errorf("%s has no VERSION_ID", releasePath)
		}
	default:
		return Target{}, &UnsupportedPlatformError{Kind: "OS", Value: goos}
	}

	arch, err := NormalizeArch(machineName)
	if err != nil {
		return Target{}, err
	}
	target.Arch = arch
	return target, nil
}

// NormalizeArch maps a machine name to its canonical tag.
func NormalizeArch(machineName string) (Arch, error) {
	switch machineName {
	case "AMD64", "x86_64":
		return X86_64, nil
	case "aarch64", "arm64":
		return ARM64, nil
	}
	return "", &UnsupportedPlatformError{Kind: "architecture", Value: machineName}
}

// Parse converts a package name produced by PackageName back into a
// Target.
func Parse(packageName string) (Target, error) {
	if packageName == jetsonPackageName {
		return Target{OS: Jetson, Arch: ARM64}, nil
	}

	// Architecture tags contain underscores themselves, so match the
	// known suffixes instead of splitting on the last one.
	var prefix string
	var arch Arch
	for _, candidate := range []Arch{X86_64, ARM64} {
		if trimmed, ok := strings.CutSuffix(packageName, "_"+string(candidate)); ok && trimmed != "" {
			prefix, arch = trimmed, candidate
			break
		}
	}
	if arch == "" {
		separator := strings.LastIndexByte(packageName, '_')
		if separator <= 0 {
			return Target{}, fmt.Errorf("malformed package name %q", packageName)
		}
		return Target{}, &UnsupportedPlatformError{Kind: "architecture", Value: packageName[separator+1:]}
	}

	switch {
	case prefix == string(Windows):
		return Target{OS: Windows, Arch: arch}, nil
	case prefix == string(MacOS):
		return Target{OS: MacOS, Arch: arch}, nil
	case prefix == string(RaspberryPiOS):
		return Target{OS: RaspberryPiOS, Arch: arch}, nil
	case strings.HasPrefix(prefix, "ubuntu-") && len(prefix) > len("ubuntu-"):
		return Target{OS: Ubuntu, OSVersion: strings.TrimPrefix(prefix, "ubuntu-"), Arch: arch}, nil
	}
	return Target{}, &UnsupportedPlatformError{Kind: "OS", Value: prefix}
}
