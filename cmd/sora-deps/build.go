// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sora-sdk/cmd/sora-deps/cli"
	"github.com/bureau-foundation/sora-sdk/lib/deps"
)

func buildCommand(stdout io.Writer) *cli.Command {
	var flags commonFlags
	var configuration, sourceDir, installPrefix string
	return &cli.Command{
		Name:    "build",
		Summary: "Install dependencies and build the extension with cmake",
		Description: `Install dependencies, then configure, build and install the native
extension with cmake. On Ubuntu the build uses the clang and libc++
shipped with libwebrtc; on macOS the SDK sysroot comes from xcrun.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVar(&configuration, "configuration", "", "cmake build type (default from config: Release)")
			flagSet.StringVar(&sourceDir, "source-dir", "", "directory holding CMakeLists.txt (default from config: .)")
			flagSet.StringVar(&installPrefix, "install-prefix", "", "where the built extension is installed (default from config: src/sora_sdk)")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Debug build reusing a deps cache", Command: "sora-deps build --deps-dir _deps --configuration Debug"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			s, err := flags.open()
			if err != nil {
				return err
			}
			defer s.close()
			if configuration != "" {
				s.config.Build.Configuration = configuration
			}
			if sourceDir != "" {
				s.config.Build.SourceDir = sourceDir
			}
			if installPrefix != "" {
				s.config.Build.InstallPrefix = installPrefix
			}
			if err := s.config.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			results, err := installDependencies(ctx, s)
			printResults(stdout, s, results)
			if err != nil {
				return err
			}
			return buildExtension(ctx, s)
		},
	}
}

func buildExtension(ctx context.Context, s *session) error {
	build := s.config.Build
	runner := s.runner()

	cmakeArgs, err := deps.CMakeArgs(ctx, runner, s.target, s.layout, build.Configuration)
	if err != nil {
		return err
	}
	builder := deps.NewBuilder(s.layout, build.SourceDir, build.Configuration, runner, s.logger)
	if err := builder.Configure(ctx, cmakeArgs); err != nil {
		return err
	}
	if err := builder.Build(ctx); err != nil {
		return err
	}
	return builder.Install(ctx, build.InstallPrefix)
}
