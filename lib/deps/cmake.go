// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deps

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/sora-sdk/lib/platform"
	"github.com/bureau-foundation/sora-sdk/lib/toolexec"
)

// WebRTCInfo locates the parts of an installed WebRTC package and the
// matching toolchain.
type WebRTCInfo struct {
	// VersionFile pins the toolchain sources WebRTC was built with.
	VersionFile string
	IncludeDir  string
	LibraryDir  string
	ClangDir    string
	LibcxxDir   string
}

// NewWebRTCInfo returns the locations inside layout's install root.
func NewWebRTCInfo(layout Layout) WebRTCInfo {
	webrtc := layout.InstallPath(KindWebRTC)
	llvm := layout.InstallPath(KindLLVM)
	return WebRTCInfo{
		VersionFile: filepath.Join(webrtc, "VERSIONS"),
		IncludeDir:  filepath.Join(webrtc, "include"),
		LibraryDir:  filepath.Join(webrtc, "lib"),
		ClangDir:    filepath.Join(llvm, "clang"),
		LibcxxDir:   filepath.Join(llvm, "libcxx"),
	}
}

// cmakePath converts a native path to the forward-slash form cmake
// accepts on every platform.
func cmakePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

// CMakeArgs returns the -D arguments that configure the native
// extension against an installed layout. On macOS the SDK sysroot is
// queried with xcrun through runner.
func CMakeArgs(ctx context.Context, runner toolexec.Runner, target platform.Target, layout Layout, configuration string) ([]string, error) {
	info := NewWebRTCInfo(layout)
	args := []string{
		"-DCMAKE_BUILD_TYPE=" + configuration,
		"-DTARGET_OS=" + string(target.OS),
		"-DBOOST_ROOT=" + cmakePath(layout.InstallPath(KindBoost)),
		"-DLYRA_DIR=" + cmakePath(layout.InstallPath(KindLyra)),
		"-DWEBRTC_INCLUDE_DIR=" + cmakePath(info.IncludeDir),
		"-DWEBRTC_LIBRARY_DIR=" + cmakePath(info.LibraryDir),
		"-DSORA_DIR=" + cmakePath(layout.InstallPath(KindSora)),
	}

	switch target.OS {
	case platform.Ubuntu:
		args = append(args,
			"-DCMAKE_C_COMPILER="+filepath.Join(info.ClangDir, "bin", "clang"),
			"-DCMAKE_CXX_COMPILER="+filepath.Join(info.ClangDir, "bin", "clang++"),
			"-DLIBCXX_INCLUDE_DIR="+cmakePath(filepath.Join(info.LibcxxDir, "include")),
		)
	case platform.MacOS:
		sysroot, err := runner.Run(ctx, "", "xcrun", "--sdk", "macosx", "--show-sdk-path")
		if err != nil {
			return nil, fmt.Errorf("locating macOS SDK: %w", err)
		}
		args = append(args,
			"-DCMAKE_SYSTEM_PROCESSOR=arm64",
			"-DCMAKE_OSX_ARCHITECTURES=arm64",
			"-DCMAKE_C_COMPILER=clang",
			"-DCMAKE_C_COMPILER_TARGET=aarch64-apple-darwin",
			"-DCMAKE_CXX_COMPILER=clang++",
			"-DCMAKE_CXX_COMPILER_TARGET=aarch64-apple-darwin",
			"-DCMAKE_SYSROOT="+strings.TrimSpace(sysroot),
		)
	}
	return args, nil
}
