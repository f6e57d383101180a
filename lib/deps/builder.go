// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deps

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bureau-foundation/sora-sdk/lib/toolexec"
)

// DefaultConfiguration is the cmake build type used when none is set.
const DefaultConfiguration = "Release"

// Builder drives cmake for the native extension.
type Builder struct {
	// SourceDir holds the extension's CMakeLists.txt.
	SourceDir string
	// BuildDir receives the cmake build tree, usually a subdirectory of
	// Layout.Build.
	BuildDir      string
	Configuration string
	Runner        toolexec.Runner
	Logger        *slog.Logger
}

// NewBuilder returns a Builder whose build tree lives under the
// layout's build directory.
func NewBuilder(layout Layout, sourceDir, configuration string, runner toolexec.Runner, logger *slog.Logger) *Builder {
	if configuration == "" {
		configuration = DefaultConfiguration
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if runner == nil {
		runner = &toolexec.Exec{Logger: logger}
	}
	return &Builder{
		SourceDir:     sourceDir,
		BuildDir:      filepath.Join(layout.Build, "sora_sdk"),
		Configuration: configuration,
		Runner:        runner,
		Logger:        logger,
	}
}

// Configure generates the build tree with the given -D arguments.
func (b *Builder) Configure(ctx context.Context, cmakeArgs []string) error {
	args := append([]string{"-S", b.SourceDir, "-B", b.BuildDir}, cmakeArgs...)
	b.Logger.Info("configuring native extension", "source", b.SourceDir, "build", b.BuildDir)
	if _, err := b.Runner.Run(ctx, "", "cmake", args...); err != nil {
		return fmt.Errorf("configuring: %w", err)
	}
	return nil
}

// Build compiles the configured build tree.
func (b *Builder) Build(ctx context.Context) error {
	b.Logger.Info("building native extension", "configuration", b.Configuration)
	if _, err := b.Runner.Run(ctx, "", "cmake", "--build", b.BuildDir, "--config", b.Configuration); err != nil {
		return fmt.Errorf("building: %w", err)
	}
	return nil
}

// Install copies the built extension into prefix.
func (b *Builder) Install(ctx context.Context, prefix string) error {
	b.Logger.Info("installing native extension", "prefix", prefix)
	if _, err := b.Runner.Run(ctx, "", "cmake", "--install", b.BuildDir, "--config", b.Configuration, "--prefix", prefix); err != nil {
		return fmt.Errorf("installing: %w", err)
	}
	return nil
}
