// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/sora-sdk/lib/archive"
	"github.com/bureau-foundation/sora-sdk/lib/fetch"
	"github.com/bureau-foundation/sora-sdk/lib/git"
	"github.com/bureau-foundation/sora-sdk/lib/marker"
	"github.com/bureau-foundation/sora-sdk/lib/platform"
	"github.com/bureau-foundation/sora-sdk/lib/toolexec"
)

// CloneFunc materializes one commit of a git repository into dir.
type CloneFunc func(ctx context.Context, url, commit, dir string) error

// Installer runs the dependency acquisition pipeline for one target
// into one layout.
type Installer struct {
	Layout   Layout
	Target   platform.Target
	Versions Versions
	Releases Releases

	// IgnoreVersion forces every step to run regardless of markers.
	IgnoreVersion bool

	Fetcher   *fetch.Fetcher
	Extractor *archive.Extractor

	// Runner executes python3 for the LLVM step.
	Runner toolexec.Runner

	// Clone fetches toolchain sources. Nil uses git.ShallowClone with
	// Runner.
	Clone CloneFunc

	Logger *slog.Logger
}

// StepResult reports what one pipeline step did.
type StepResult struct {
	Kind    Kind
	Version string
	// Ran is false when the version marker already matched.
	Ran bool
}

// Install runs every step for the installer's target in order and
// stops at the first failure. Steps that succeeded before the failure
// keep their markers, so a retry resumes where this run stopped.
func (i *Installer) Install(ctx context.Context) ([]StepResult, error) {
	i.setDefaults()
	if err := i.Layout.Create(); err != nil {
		return nil, err
	}

	var results []StepResult
	record := func(kind Kind, version string, ran bool) {
		results = append(results, StepResult{Kind: kind, Version: version, Ran: ran})
		if ran {
			i.Logger.Info("installed dependency", "kind", kind, "version", version)
		} else {
			i.Logger.Info("dependency up to date", "kind", kind, "version", version)
		}
	}

	webrtc := i.Releases.ResolveWebRTC(i.Versions.WebRTCBuild, i.Target)
	ran, err := i.installArchive(ctx, webrtc)
	if err != nil {
		return results, err
	}
	record(webrtc.Kind, webrtc.Version, ran)

	if i.Target.OS == platform.Ubuntu {
		sources, err := LoadToolchainSources(NewWebRTCInfo(i.Layout).VersionFile)
		if err != nil {
			return results, fmt.Errorf("reading toolchain pins: %w", err)
		}
		ran, err := i.guard(KindLLVM).Run(sources.Version(), func(string) error {
			return i.installLLVM(ctx, sources)
		})
		if err != nil {
			return results, fmt.Errorf("installing llvm: %w", err)
		}
		record(KindLLVM, sources.Version(), ran)
	}

	for _, artifact := range []Artifact{
		i.Releases.ResolveBoost(i.Versions.Boost, i.Versions.SoraCPPSDK, i.Target),
		i.Releases.ResolveLyra(i.Versions.Lyra, i.Versions.SoraCPPSDK, i.Target),
		i.Releases.ResolveSora(i.Versions.SoraCPPSDK, i.Target),
	} {
		ran, err := i.installArchive(ctx, artifact)
		if err != nil {
			return results, err
		}
		record(artifact.Kind, artifact.Version, ran)
	}
	return results, nil
}

func (i *Installer) setDefaults() {
	if i.Logger == nil {
		i.Logger = slog.New(slog.DiscardHandler)
	}
	if i.Releases == (Releases{}) {
		i.Releases = DefaultReleases()
	}
	if i.Fetcher == nil {
		i.Fetcher = fetch.New(nil, i.Logger)
	}
	if i.Extractor == nil {
		i.Extractor = archive.NewExtractor(i.Logger)
	}
	if i.Runner == nil {
		i.Runner = &toolexec.Exec{Logger: i.Logger}
	}
	if i.Clone == nil {
		runner := i.Runner
		i.Clone = func(ctx context.Context, url, commit, dir string) error {
			return git.ShallowClone(ctx, runner, url, commit, dir)
		}
	}
}

func (i *Installer) guard(kind Kind) marker.Guard {
	return marker.Guard{
		Path:         i.Layout.MarkerPath(kind),
		IgnoreMarker: i.IgnoreVersion,
		Logger:       i.Logger,
	}
}

// installArchive replaces the cached archive and the install directory
// of one artifact when its marker does not match.
func (i *Installer) installArchive(ctx context.Context, artifact Artifact) (bool, error) {
	ran, err := i.guard(artifact.Kind).Run(artifact.Version, func(string) error {
		cached := filepath.Join(i.Layout.Source, artifact.Filename)
		if err := archive.RemoveAll(cached); err != nil {
			return err
		}
		downloaded, err := i.Fetcher.Fetch(ctx, artifact.URL, i.Layout.Source, artifact.Filename)
		if err != nil {
			return err
		}
		if err := archive.RemoveAll(i.Layout.InstallPath(artifact.Kind)); err != nil {
			return err
		}
		return i.Extractor.Extract(downloaded, i.Layout.Install, string(artifact.Kind), "")
	})
	if err != nil {
		return ran, fmt.Errorf("installing %s %s: %w", artifact.Kind, artifact.Version, err)
	}
	return ran, nil
}

// installLLVM builds <install>/llvm from scratch: the Chromium clang
// binaries fetched by the tools repository's update script, libc++
// headers, and the __config_site from buildtools that matches them.
func (i *Installer) installLLVM(ctx context.Context, sources ToolchainSources) error {
	llvmDirectory := i.Layout.InstallPath(KindLLVM)
	if err := archive.RemoveAll(llvmDirectory); err != nil {
		return err
	}
	if err := os.MkdirAll(llvmDirectory, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", llvmDirectory, err)
	}

	toolsDirectory := filepath.Join(llvmDirectory, "tools")
	if err := i.Clone(ctx, sources.ToolsURL, sources.ToolsCommit, toolsDirectory); err != nil {
		return err
	}
	updateScript := filepath.Join("clang", "scripts", "update.py")
	clangDirectory := filepath.Join(llvmDirectory, "clang")
	if _, err := i.Runner.Run(ctx, toolsDirectory, "python3", updateScript, "--output-dir", clangDirectory); err != nil {
		return err
	}

	libcxxDirectory := filepath.Join(llvmDirectory, "libcxx")
	if err := i.Clone(ctx, sources.LibcxxURL, sources.LibcxxCommit, libcxxDirectory); err != nil {
		return err
	}

	buildtoolsDirectory := filepath.Join(llvmDirectory, "buildtools")
	if err := i.Clone(ctx, sources.BuildtoolsURL, sources.BuildtoolsCommit, buildtoolsDirectory); err != nil {
		return err
	}
	return copyFile(
		filepath.Join(buildtoolsDirectory, "third_party", "libc++", "__config_site"),
		filepath.Join(libcxxDirectory, "include", "__config_site"),
	)
}

func copyFile(source, destination string) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}
	output, err := os.Create(destination)
	if err != nil {
		return err
	}
	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return fmt.Errorf("copying %s to %s: %w", source, destination, err)
	}
	return output.Close()
}
