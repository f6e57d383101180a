// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deps

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/sora-sdk/lib/platform"
)

func TestLoadVersions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "VERSION")
	content := `# pinned dependencies
SORA_CPP_SDK_VERSION=2023.17.0
WEBRTC_BUILD_VERSION=m120.6099.1.2

BOOST_VERSION="1.83.0"
LYRA_VERSION=1.3.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	versions, err := LoadVersions(path)
	if err != nil {
		t.Fatalf("LoadVersions: %v", err)
	}
	if versions != testVersions {
		t.Errorf("LoadVersions = %+v, want %+v", versions, testVersions)
	}
}

func TestLoadVersionsMissingKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "VERSION")
	if err := os.WriteFile(path, []byte("WEBRTC_BUILD_VERSION=m120\nBOOST_VERSION=1.83.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadVersions(path)
	if err == nil {
		t.Fatal("LoadVersions succeeded with missing pins")
	}
	for _, key := range []string{"LYRA_VERSION", "SORA_CPP_SDK_VERSION"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestToolchainSourcesVersion(t *testing.T) {
	t.Parallel()

	sources := ToolchainSources{
		ToolsURL: "t", ToolsCommit: "1",
		LibcxxURL: "l", LibcxxCommit: "2",
		BuildtoolsURL: "b", BuildtoolsCommit: "3",
	}
	if got := sources.Version(); got != "t.1.l.2.b.3" {
		t.Errorf("Version = %q, want %q", got, "t.1.l.2.b.3")
	}
}

func TestArtifacts(t *testing.T) {
	t.Parallel()

	windows := platform.Target{OS: platform.Windows, Arch: platform.X86_64}
	releases := DefaultReleases()

	tests := []struct {
		artifact Artifact
		wantURL  string
	}{
		{
			artifact: releases.ResolveWebRTC("m120.6099.1.2", ubuntuTarget),
			wantURL:  "https://github.com/shiguredo-webrtc-build/webrtc-build/releases/download/m120.6099.1.2/webrtc.ubuntu-22.04_x86_64.tar.gz",
		},
		{
			artifact: releases.ResolveWebRTC("m120.6099.1.2", windows),
			wantURL:  "https://github.com/shiguredo-webrtc-build/webrtc-build/releases/download/m120.6099.1.2/webrtc.windows_x86_64.zip",
		},
		{
			artifact: releases.ResolveBoost("1.83.0", "2023.17.0", macTarget),
			wantURL:  "https://github.com/shiguredo/sora-cpp-sdk/releases/download/2023.17.0/boost-1.83.0_sora-cpp-sdk-2023.17.0_macos_arm64.tar.gz",
		},
		{
			artifact: releases.ResolveLyra("1.3.0", "2023.17.0", windows),
			wantURL:  "https://github.com/shiguredo/sora-cpp-sdk/releases/download/2023.17.0/lyra-1.3.0_sora-cpp-sdk-2023.17.0_windows_x86_64.zip",
		},
		{
			artifact: releases.ResolveSora("2023.17.0", platform.Target{OS: platform.Jetson, Arch: platform.ARM64}),
			wantURL:  "https://github.com/shiguredo/sora-cpp-sdk/releases/download/2023.17.0/sora-cpp-sdk-2023.17.0_ubuntu-20.04_armv8_jetson.tar.gz",
		},
	}
	for _, test := range tests {
		if test.artifact.URL != test.wantURL {
			t.Errorf("%s URL = %s, want %s", test.artifact.Kind, test.artifact.URL, test.wantURL)
		}
		if !strings.HasSuffix(test.wantURL, "/"+test.artifact.Filename) {
			t.Errorf("%s Filename = %s, not the URL's last segment", test.artifact.Kind, test.artifact.Filename)
		}
	}

	// Boost and Lyra markers record their own version, not the SDK's.
	if got := releases.ResolveBoost("1.83.0", "2023.17.0", macTarget).Version; got != "1.83.0" {
		t.Errorf("boost Version = %q, want %q", got, "1.83.0")
	}
}

func TestLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	layout := NewLayout(root)
	if err := layout.Create(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"_source", "_build", "_install"} {
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", name, err)
		}
	}
	if got, want := layout.MarkerPath(KindLyra), filepath.Join(root, "_install", "lyra.version"); got != want {
		t.Errorf("MarkerPath = %s, want %s", got, want)
	}
	if got, want := layout.InstallPath(KindSora), filepath.Join(root, "_install", "sora"); got != want {
		t.Errorf("InstallPath = %s, want %s", got, want)
	}
}

func TestAcquireDir(t *testing.T) {
	t.Parallel()

	t.Run("configured", func(t *testing.T) {
		configured := t.TempDir()
		directory, release, err := AcquireDir(configured)
		if err != nil {
			t.Fatal(err)
		}
		release()
		if directory != configured {
			t.Errorf("AcquireDir = %s, want %s", directory, configured)
		}
		if _, err := os.Stat(configured); err != nil {
			t.Errorf("release removed the configured directory: %v", err)
		}
	})

	t.Run("temporary", func(t *testing.T) {
		directory, release, err := AcquireDir("")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(filepath.Base(directory), "sora-python-sdk-") {
			t.Errorf("temporary directory %s lacks the expected prefix", directory)
		}
		if err := os.WriteFile(filepath.Join(directory, "partial"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		release()
		if _, err := os.Stat(directory); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("temporary directory survived release: %v", err)
		}
	})
}

// sdkRunner answers xcrun and records every invocation.
type sdkRunner struct {
	calls []string
}

func (r *sdkRunner) Run(_ context.Context, _ string, name string, args ...string) (string, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	if name == "xcrun" {
		return "/Library/Developer/CommandLineTools/SDKs/MacOSX.sdk\n", nil
	}
	return "", nil
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func TestCMakeArgs(t *testing.T) {
	t.Parallel()

	layout := NewLayout("/deps")
	ctx := context.Background()

	t.Run("ubuntu", func(t *testing.T) {
		runner := &sdkRunner{}
		args, err := CMakeArgs(ctx, runner, ubuntuTarget, layout, "Release")
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{
			"-DCMAKE_BUILD_TYPE=Release",
			"-DTARGET_OS=ubuntu",
			"-DBOOST_ROOT=" + cmakePath(filepath.Join("/deps", "_install", "boost")),
			"-DWEBRTC_INCLUDE_DIR=" + cmakePath(filepath.Join("/deps", "_install", "webrtc", "include")),
			"-DCMAKE_CXX_COMPILER=" + filepath.Join("/deps", "_install", "llvm", "clang", "bin", "clang++"),
			"-DLIBCXX_INCLUDE_DIR=" + cmakePath(filepath.Join("/deps", "_install", "llvm", "libcxx", "include")),
		} {
			if !hasArg(args, want) {
				t.Errorf("args %v missing %s", args, want)
			}
		}
		if len(runner.calls) != 0 {
			t.Errorf("ubuntu ran %v, want no commands", runner.calls)
		}
	})

	t.Run("macos", func(t *testing.T) {
		runner := &sdkRunner{}
		args, err := CMakeArgs(ctx, runner, macTarget, layout, "Debug")
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{
			"-DCMAKE_BUILD_TYPE=Debug",
			"-DTARGET_OS=macos",
			"-DCMAKE_OSX_ARCHITECTURES=arm64",
			"-DCMAKE_SYSROOT=/Library/Developer/CommandLineTools/SDKs/MacOSX.sdk",
		} {
			if !hasArg(args, want) {
				t.Errorf("args %v missing %s", args, want)
			}
		}
		if len(runner.calls) != 1 || runner.calls[0] != "xcrun --sdk macosx --show-sdk-path" {
			t.Errorf("calls = %v, want one xcrun query", runner.calls)
		}
	})

	t.Run("windows", func(t *testing.T) {
		args, err := CMakeArgs(ctx, &sdkRunner{}, platform.Target{OS: platform.Windows, Arch: platform.X86_64}, layout, "Release")
		if err != nil {
			t.Fatal(err)
		}
		for _, arg := range args {
			if strings.HasPrefix(arg, "-DCMAKE_C_COMPILER") || strings.HasPrefix(arg, "-DCMAKE_SYSROOT") {
				t.Errorf("windows args contain %s", arg)
			}
		}
	})
}

func TestCMakePath(t *testing.T) {
	t.Parallel()

	if got := cmakePath(`C:\deps\_install\boost`); got != "C:/deps/_install/boost" {
		t.Errorf("cmakePath = %q", got)
	}
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	runner := &sdkRunner{}
	layout := NewLayout("/deps")
	builder := NewBuilder(layout, "/src/sora-python-sdk", "", runner, nil)
	ctx := context.Background()

	if err := builder.Configure(ctx, []string{"-DTARGET_OS=ubuntu"}); err != nil {
		t.Fatal(err)
	}
	if err := builder.Build(ctx); err != nil {
		t.Fatal(err)
	}
	if err := builder.Install(ctx, "/src/sora-python-sdk/src/sora_sdk"); err != nil {
		t.Fatal(err)
	}

	buildDir := filepath.Join("/deps", "_build", "sora_sdk")
	want := []string{
		"cmake -S /src/sora-python-sdk -B " + buildDir + " -DTARGET_OS=ubuntu",
		"cmake --build " + buildDir + " --config Release",
		"cmake --install " + buildDir + " --config Release --prefix /src/sora-python-sdk/src/sora_sdk",
	}
	if len(runner.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", runner.calls, want)
	}
	for index := range want {
		if runner.calls[index] != want[index] {
			t.Errorf("call %d = %q, want %q", index, runner.calls[index], want[index])
		}
	}
}
