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

func installCommand(stdout io.Writer) *cli.Command {
	var flags commonFlags
	return &cli.Command{
		Name:    "install",
		Summary: "Download and unpack pinned native dependencies",
		Description: `Download and unpack the pinned native dependencies for the target
platform. A dependency whose version marker matches the VERSION pin is
skipped; the first failure stops the run and leaves later markers
untouched, so rerunning resumes where it stopped.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("install", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Install into a persistent cache", Command: "sora-deps install --deps-dir _deps"},
			{Description: "Force a clean reinstall", Command: "sora-deps install --deps-dir _deps --ignore-version"},
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

			results, err := installDependencies(ctx, s)
			printResults(stdout, s, results)
			return err
		},
	}
}

func installDependencies(ctx context.Context, s *session) ([]deps.StepResult, error) {
	versions, err := deps.LoadVersions(s.config.VersionFile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("installing dependencies",
		"target", s.target.PackageName(),
		"deps_dir", s.layout.Root,
		"webrtc_build", versions.WebRTCBuild,
		"sora_cpp_sdk", versions.SoraCPPSDK,
	)
	return s.installer(versions).Install(ctx)
}

func printResults(w io.Writer, s *session, results []deps.StepResult) {
	for _, result := range results {
		state := "up to date"
		if result.Ran {
			state = "installed"
		}
		fmt.Fprintf(w, "%-7s %-40s %s\n", result.Kind, result.Version, state)
	}
	if len(results) > 0 {
		fmt.Fprintf(w, "install dir: %s\n", s.layout.Install)
	}
}
